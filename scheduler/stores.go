package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"financas-go-be/models"
)

// ErrDuplicateExecution means a run marker already exists for the
// (rule, date) pair. It is the expected outcome of losing a race with a
// concurrent invocation and is never surfaced to users.
var ErrDuplicateExecution = errors.New("recurring run already recorded for rule and date")

// RuleStore is the persistence contract for recurring rules. Implementations
// may push coarse predicates (is_active, per-type day filters) into storage;
// exact due-day matching stays in Select.
type RuleStore interface {
	// FindCandidates returns active rules that could fire on ref.
	FindCandidates(ctx context.Context, ref time.Time) ([]models.RecurringRule, error)

	// IncrementInstallments bumps paid_installments by one as an atomic
	// storage-side update and returns the new count.
	IncrementInstallments(ctx context.Context, ruleID uuid.UUID) (int, error)

	// Deactivate flips is_active to false.
	Deactivate(ctx context.Context, ruleID uuid.UUID) error
}

// ExecutionLedger records one idempotency marker per (rule, date) pair.
//
// CommitRun persists the ledger transaction and its run marker as a single
// storage transaction, so there is no window where a transaction exists
// without its marker. The storage layer must enforce a uniqueness constraint
// on (rule, date): a concurrent writer that loses the race gets
// ErrDuplicateExecution and must not leave a second transaction behind.
type ExecutionLedger interface {
	// FindRun returns the marker for (ruleID, date), or nil when absent.
	FindRun(ctx context.Context, ruleID uuid.UUID, date time.Time) (*models.RecurringRun, error)

	// CommitRun writes txn and its marker atomically. txn.RecurringRuleID
	// must be set; date is normalized to midnight UTC.
	CommitRun(ctx context.Context, txn *models.Transaction, date time.Time) (*models.RecurringRun, error)
}
