package scheduler

import (
	"time"

	"financas-go-be/models"
)

// Selection is the outcome of sifting active rules against a reference date.
// Due rules should be materialized; Completed installments should be
// deactivated even when they are not due today, so exhausted loans stop
// showing up in future candidate sets. Malformed rules are surfaced for
// logging only. No ordering is guaranteed for any slice.
type Selection struct {
	Due       []models.RecurringRule
	Completed []models.RecurringRule
	Malformed []models.RecurringRule
}

// Select decides which of the given rules fire on ref. It is pure: the same
// inputs always produce the same selection.
func Select(rules []models.RecurringRule, ref time.Time) Selection {
	date := Midnight(ref)

	var sel Selection
	for _, rule := range rules {
		sched, err := ScheduleOf(rule)
		if err != nil {
			sel.Malformed = append(sel.Malformed, rule)
			continue
		}
		if inst, ok := sched.(InstallmentSchedule); ok && inst.Completed() {
			sel.Completed = append(sel.Completed, rule)
			continue
		}
		if dueOn(sched, date) {
			sel.Due = append(sel.Due, rule)
		}
	}
	return sel
}

// DueOn reports whether a single rule fires on ref.
func DueOn(rule models.RecurringRule, ref time.Time) (bool, error) {
	sched, err := ScheduleOf(rule)
	if err != nil {
		return false, err
	}
	return dueOn(sched, Midnight(ref)), nil
}

func dueOn(sched Schedule, date time.Time) bool {
	switch s := sched.(type) {
	case MonthlySchedule:
		// Days 29-31 are rejected at creation; a stray row with one simply
		// never matches a short month and is not patched up here.
		return s.Day == date.Day()
	case WeeklySchedule:
		return s.Weekday == date.Weekday()
	case InstallmentSchedule:
		// Anniversary billing: fires on the start date's day each month.
		return !s.Start.After(date) && s.Start.Day() == date.Day() && !s.Completed()
	default:
		return false
	}
}
