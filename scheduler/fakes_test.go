package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"financas-go-be/models"
)

// In-memory store fakes. The ledger fake enforces the same uniqueness
// guarantee a relational unique index provides, under a mutex, so the
// concurrency tests exercise the real race.

type fakeRuleStore struct {
	mu            sync.Mutex
	rules         map[uuid.UUID]*models.RecurringRule
	incrementErr  error
	deactivateErr error
}

func newFakeRuleStore(rules ...models.RecurringRule) *fakeRuleStore {
	s := &fakeRuleStore{rules: make(map[uuid.UUID]*models.RecurringRule)}
	for i := range rules {
		r := rules[i]
		s.rules[r.ID] = &r
	}
	return s
}

func (s *fakeRuleStore) FindCandidates(ctx context.Context, ref time.Time) ([]models.RecurringRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.RecurringRule
	for _, r := range s.rules {
		if r.IsActive {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *fakeRuleStore) IncrementInstallments(ctx context.Context, ruleID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.incrementErr != nil {
		return 0, s.incrementErr
	}
	r, ok := s.rules[ruleID]
	if !ok {
		return 0, fmt.Errorf("rule %s not found", ruleID)
	}
	r.PaidInstallments++
	return r.PaidInstallments, nil
}

func (s *fakeRuleStore) Deactivate(ctx context.Context, ruleID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deactivateErr != nil {
		return s.deactivateErr
	}
	r, ok := s.rules[ruleID]
	if !ok {
		return fmt.Errorf("rule %s not found", ruleID)
	}
	r.IsActive = false
	return nil
}

func (s *fakeRuleStore) get(ruleID uuid.UUID) models.RecurringRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.rules[ruleID]
}

type fakeLedger struct {
	mu           sync.Mutex
	runs         map[string]*models.RecurringRun
	txns         map[uuid.UUID]*models.Transaction
	findErr      error
	commitErrFor map[uuid.UUID]error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		runs:         make(map[string]*models.RecurringRun),
		txns:         make(map[uuid.UUID]*models.Transaction),
		commitErrFor: make(map[uuid.UUID]error),
	}
}

func runKey(ruleID uuid.UUID, date time.Time) string {
	return ruleID.String() + "|" + Midnight(date).Format("2006-01-02")
}

func (l *fakeLedger) FindRun(ctx context.Context, ruleID uuid.UUID, date time.Time) (*models.RecurringRun, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.findErr != nil {
		return nil, l.findErr
	}
	if run, ok := l.runs[runKey(ruleID, date)]; ok {
		out := *run
		return &out, nil
	}
	return nil, nil
}

func (l *fakeLedger) CommitRun(ctx context.Context, txn *models.Transaction, date time.Time) (*models.RecurringRun, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.commitErrFor[*txn.RecurringRuleID]; err != nil {
		return nil, err
	}
	key := runKey(*txn.RecurringRuleID, date)
	if _, ok := l.runs[key]; ok {
		return nil, ErrDuplicateExecution
	}
	run := &models.RecurringRun{
		ID:              uuid.New(),
		RecurringRuleID: *txn.RecurringRuleID,
		ExecutionDate:   Midnight(date),
		TransactionID:   txn.ID,
	}
	l.runs[key] = run
	copied := *txn
	l.txns[txn.ID] = &copied
	out := *run
	return &out, nil
}

func (l *fakeLedger) transactionCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.txns)
}

func (l *fakeLedger) runCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.runs)
}

func intPtr(v int) *int { return &v }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monthlyRule(day int, amountCents int64) models.RecurringRule {
	return models.RecurringRule{
		ID:              uuid.New(),
		UserID:          uuid.New(),
		Description:     "rule",
		AmountCents:     amountCents,
		TransactionType: models.TypeExpense,
		Type:            models.RecurrenceMonthly,
		CategoryID:      uuid.New(),
		DayOfMonth:      intPtr(day),
		StartDate:       date(2024, time.January, 1),
		IsActive:        true,
	}
}

func weeklyRule(weekday int) models.RecurringRule {
	r := monthlyRule(1, 1000)
	r.Type = models.RecurrenceWeekly
	r.DayOfMonth = nil
	r.DayOfWeek = intPtr(weekday)
	return r
}

func installmentRule(start time.Time, total, paid int) models.RecurringRule {
	r := monthlyRule(1, 1000)
	r.Type = models.RecurrenceInstallment
	r.DayOfMonth = nil
	r.StartDate = start
	r.TotalInstallments = intPtr(total)
	r.PaidInstallments = paid
	return r
}
