package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"financas-go-be/models"
)

// Outcome classifies the result of one materialization attempt.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// SkipReason says why a rule was skipped. Skips are normal operation, not
// errors.
type SkipReason string

const (
	// SkipAlreadyRun: a marker for (rule, date) already exists.
	SkipAlreadyRun SkipReason = "already-run"
	// SkipCompleted: an installment rule has exhausted its count.
	SkipCompleted SkipReason = "completed"
)

// Result reports what happened to one rule on one date.
type Result struct {
	RuleID        uuid.UUID
	Outcome       Outcome
	TransactionID uuid.UUID
	Reason        SkipReason
	Err           error
}

// Materializer converts one due rule-occurrence into one ledger transaction,
// guarded by the execution ledger's idempotency marker. Safe to call any
// number of times, from any number of processes, for the same (rule, date).
type Materializer struct {
	rules  RuleStore
	ledger ExecutionLedger
	log    zerolog.Logger
}

func NewMaterializer(rules RuleStore, ledger ExecutionLedger, log zerolog.Logger) *Materializer {
	return &Materializer{rules: rules, ledger: ledger, log: log}
}

// Materialize runs the idempotent core operation for a single rule.
func (m *Materializer) Materialize(ctx context.Context, rule models.RecurringRule, ref time.Time) Result {
	date := Midnight(ref)

	run, err := m.ledger.FindRun(ctx, rule.ID, date)
	if err != nil {
		return m.failed(rule.ID, fmt.Errorf("look up run marker: %w", err))
	}
	if run != nil {
		return skipped(rule.ID, SkipAlreadyRun)
	}

	if rule.Type == models.RecurrenceInstallment &&
		rule.TotalInstallments != nil && rule.PaidInstallments >= *rule.TotalInstallments {
		if err := m.rules.Deactivate(ctx, rule.ID); err != nil {
			return m.failed(rule.ID, fmt.Errorf("deactivate completed rule: %w", err))
		}
		return skipped(rule.ID, SkipCompleted)
	}

	ruleID := rule.ID
	txn := &models.Transaction{
		ID:              uuid.New(),
		UserID:          rule.UserID,
		Type:            rule.TransactionType,
		CategoryID:      rule.CategoryID,
		Description:     rule.Description,
		AmountCents:     rule.AmountCents,
		Date:            date,
		RecurringRuleID: &ruleID,
	}

	if _, err := m.ledger.CommitRun(ctx, txn, date); err != nil {
		if errors.Is(err, ErrDuplicateExecution) {
			// Lost the race against a concurrent invocation. The winner's
			// transaction stands; ours was rolled back with the marker.
			return skipped(rule.ID, SkipAlreadyRun)
		}
		return m.failed(rule.ID, fmt.Errorf("commit run: %w", err))
	}

	if rule.Type == models.RecurrenceInstallment {
		paid, err := m.rules.IncrementInstallments(ctx, rule.ID)
		if err != nil {
			// The transaction and marker are committed; the counter is now
			// one behind. Surfaced as failed so operators see it.
			return m.failed(rule.ID, fmt.Errorf("increment installments after transaction %s: %w", txn.ID, err))
		}
		if rule.TotalInstallments != nil && paid >= *rule.TotalInstallments {
			if err := m.rules.Deactivate(ctx, rule.ID); err != nil {
				return m.failed(rule.ID, fmt.Errorf("deactivate exhausted rule: %w", err))
			}
		}
	}

	m.log.Info().
		Str("rule_id", rule.ID.String()).
		Str("transaction_id", txn.ID.String()).
		Time("date", date).
		Int64("amount_cents", rule.AmountCents).
		Msg("materialized recurring transaction")

	return Result{RuleID: rule.ID, Outcome: OutcomeCreated, TransactionID: txn.ID}
}

func skipped(ruleID uuid.UUID, reason SkipReason) Result {
	return Result{RuleID: ruleID, Outcome: OutcomeSkipped, Reason: reason}
}

func (m *Materializer) failed(ruleID uuid.UUID, err error) Result {
	m.log.Error().Err(err).Str("rule_id", ruleID.String()).Msg("materialization failed")
	return Result{RuleID: ruleID, Outcome: OutcomeFailed, Err: err}
}
