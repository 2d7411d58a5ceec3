package scheduler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"financas-go-be/models"
)

// GormRuleStore implements RuleStore on a GORM database.
type GormRuleStore struct {
	db *gorm.DB
}

func NewGormRuleStore(db *gorm.DB) *GormRuleStore {
	return &GormRuleStore{db: db}
}

// FindCandidates pushes the coarse predicate into SQL: active rules whose
// type-specific field could match ref. Exact due-day matching (installment
// anniversaries in particular) is left to Select.
func (s *GormRuleStore) FindCandidates(ctx context.Context, ref time.Time) ([]models.RecurringRule, error) {
	date := Midnight(ref)

	var rules []models.RecurringRule
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where(
			s.db.Where("type = ? AND day_of_month = ?", models.RecurrenceMonthly, date.Day()).
				Or("type = ? AND day_of_week = ?", models.RecurrenceWeekly, int(date.Weekday())).
				Or("type = ? AND start_date <= ?", models.RecurrenceInstallment, date),
		).
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *GormRuleStore) IncrementInstallments(ctx context.Context, ruleID uuid.UUID) (int, error) {
	res := s.db.WithContext(ctx).Model(&models.RecurringRule{}).
		Where("id = ?", ruleID).
		UpdateColumn("paid_installments", gorm.Expr("paid_installments + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	var rule models.RecurringRule
	if err := s.db.WithContext(ctx).Select("paid_installments").First(&rule, "id = ?", ruleID).Error; err != nil {
		return 0, err
	}
	return rule.PaidInstallments, nil
}

func (s *GormRuleStore) Deactivate(ctx context.Context, ruleID uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.RecurringRule{}).
		Where("id = ?", ruleID).
		Update("is_active", false).Error
}

// GormExecutionLedger implements ExecutionLedger on a GORM database. The
// compound unique index on recurring_runs(recurring_rule_id, execution_date)
// is what arbitrates concurrent invocations.
type GormExecutionLedger struct {
	db *gorm.DB
}

func NewGormExecutionLedger(db *gorm.DB) *GormExecutionLedger {
	return &GormExecutionLedger{db: db}
}

func (l *GormExecutionLedger) FindRun(ctx context.Context, ruleID uuid.UUID, date time.Time) (*models.RecurringRun, error) {
	var run models.RecurringRun
	err := l.db.WithContext(ctx).
		Where("recurring_rule_id = ? AND execution_date = ?", ruleID, Midnight(date)).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// CommitRun inserts the run marker and the ledger transaction in one storage
// transaction. The marker goes first so the unique index rejects a losing
// writer before its transaction row exists; the rollback then leaves nothing
// behind.
func (l *GormExecutionLedger) CommitRun(ctx context.Context, txn *models.Transaction, date time.Time) (*models.RecurringRun, error) {
	if txn.RecurringRuleID == nil {
		return nil, errors.New("transaction missing recurring rule reference")
	}

	run := &models.RecurringRun{
		ID:              uuid.New(),
		RecurringRuleID: *txn.RecurringRuleID,
		ExecutionDate:   Midnight(date),
		TransactionID:   txn.ID,
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return err
		}
		return tx.Create(txn).Error
	})
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateExecution
		}
		return nil, err
	}
	return run, nil
}

// isDuplicateKey matches unique-constraint violations across drivers. GORM
// translates them to ErrDuplicatedKey when TranslateError is on; the string
// checks cover drivers that don't.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
