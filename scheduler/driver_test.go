package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas-go-be/models"
)

func newTestDriver(store *fakeRuleStore, ledger *fakeLedger) *Driver {
	m := NewMaterializer(store, ledger, zerolog.Nop())
	return NewDriver(store, m, zerolog.Nop())
}

func TestRunForWholeRunIdempotence(t *testing.T) {
	rule := monthlyRule(5, 150000)
	rule.Description = "Aluguel"
	store := newFakeRuleStore(rule)
	ledger := newFakeLedger()
	d := newTestDriver(store, ledger)
	ref := date(2024, time.June, 5)

	first, err := d.RunFor(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, Summary{Candidates: 1, Created: 1, Skipped: 0, Failed: 0}, first)

	require.Equal(t, 1, ledger.transactionCount())
	for _, txn := range ledger.txns {
		assert.Equal(t, "Aluguel", txn.Description)
		assert.Equal(t, int64(150000), txn.AmountCents)
		assert.Equal(t, date(2024, time.June, 5), txn.Date)
	}

	// The trigger delivers at-least-once: the same date again must change
	// nothing.
	second, err := d.RunFor(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, Summary{Candidates: 1, Created: 0, Skipped: 1, Failed: 0}, second)
	assert.Equal(t, 1, ledger.transactionCount())
}

func TestRunForNothingDue(t *testing.T) {
	rule := monthlyRule(5, 150000)
	store := newFakeRuleStore(rule)
	d := newTestDriver(store, newFakeLedger())

	summary, err := d.RunFor(context.Background(), date(2024, time.June, 6))

	require.NoError(t, err)
	assert.Equal(t, Summary{}, summary)
}

func TestRunForDeactivatesCompletedInstallment(t *testing.T) {
	completed := installmentRule(date(2024, time.January, 10), 3, 3)
	store := newFakeRuleStore(completed)
	d := newTestDriver(store, newFakeLedger())

	// Not the rule's anniversary; deactivation must happen anyway.
	summary, err := d.RunFor(context.Background(), date(2024, time.April, 23))

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.False(t, store.get(completed.ID).IsActive)
}

func TestRunForFailureIsolation(t *testing.T) {
	healthy := monthlyRule(5, 1000)
	broken := monthlyRule(5, 2000)
	store := newFakeRuleStore(healthy, broken)
	ledger := newFakeLedger()
	ledger.commitErrFor[broken.ID] = errors.New("disk full")
	d := newTestDriver(store, ledger)

	summary, err := d.RunFor(context.Background(), date(2024, time.June, 5))

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Candidates)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, ledger.transactionCount(), "healthy rule unaffected by the broken one")
}

// Installment lifecycle across three monthly runs: after the third payment
// the rule is exhausted, inactive, and gone from future candidate sets.
func TestRunForInstallmentLifecycle(t *testing.T) {
	rule := installmentRule(date(2024, time.January, 10), 3, 0)
	store := newFakeRuleStore(rule)
	ledger := newFakeLedger()
	d := newTestDriver(store, ledger)

	for _, ref := range []time.Time{
		date(2024, time.January, 10),
		date(2024, time.February, 10),
		date(2024, time.March, 10),
	} {
		summary, err := d.RunFor(context.Background(), ref)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Created, "%s", ref.Format("2006-01-02"))
	}

	got := store.get(rule.ID)
	assert.Equal(t, 3, got.PaidInstallments)
	assert.False(t, got.IsActive)
	assert.Equal(t, 3, ledger.transactionCount())

	// Fourth anniversary: the rule is inactive, so it is not even a candidate.
	summary, err := d.RunFor(context.Background(), date(2024, time.April, 10))
	require.NoError(t, err)
	assert.Equal(t, Summary{}, summary)
}

func TestRunForSkipsMalformedWithoutAborting(t *testing.T) {
	healthy := monthlyRule(5, 1000)
	broken := monthlyRule(5, 2000)
	broken.DayOfMonth = nil
	store := newFakeRuleStore(healthy, broken)
	ledger := newFakeLedger()
	d := newTestDriver(store, ledger)

	summary, err := d.RunFor(context.Background(), date(2024, time.June, 5))

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 0, summary.Failed)
}

func TestRunForResumesAfterPartialRun(t *testing.T) {
	a := monthlyRule(5, 1000)
	b := monthlyRule(5, 2000)
	store := newFakeRuleStore(a, b)
	ledger := newFakeLedger()
	d := newTestDriver(store, ledger)
	ref := date(2024, time.June, 5)

	// Simulate an aborted earlier run that only got through rule a.
	m := NewMaterializer(store, ledger, zerolog.Nop())
	res := m.Materialize(context.Background(), a, ref)
	require.Equal(t, OutcomeCreated, res.Outcome)

	summary, err := d.RunFor(context.Background(), ref)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created, "only the unprocessed candidate fires")
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 2, ledger.transactionCount())
}

func TestRunForManyRulesConcurrently(t *testing.T) {
	var rules []models.RecurringRule
	for i := 0; i < 50; i++ {
		rules = append(rules, monthlyRule(5, int64(1000+i)))
	}
	store := newFakeRuleStore(rules...)
	ledger := newFakeLedger()
	d := newTestDriver(store, ledger)

	summary, err := d.RunFor(context.Background(), date(2024, time.June, 5))

	require.NoError(t, err)
	assert.Equal(t, 50, summary.Created)
	assert.Equal(t, 50, ledger.transactionCount())
	assert.Equal(t, 50, ledger.runCount())
}
