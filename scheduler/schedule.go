// Package scheduler turns recurring rules into concrete ledger transactions,
// exactly once per (rule, date), under at-least-once external triggering.
package scheduler

import (
	"errors"
	"fmt"
	"time"

	"financas-go-be/models"
)

// ErrMalformedRule means a rule's recurrence fields do not match its type.
// Rules are validated at creation, so this only fires on rows written outside
// the API.
var ErrMalformedRule = errors.New("recurring rule fields do not match its type")

// Midnight truncates t to its calendar date at midnight UTC. Every date the
// scheduler reads or writes goes through here, so that the unique index on
// (rule, execution_date) compares equal values.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Schedule is the closed set of recurrence variants. The selector and
// materializer only read recurrence fields through it, never from the raw
// rule row.
type Schedule interface {
	isSchedule()
}

// MonthlySchedule fires on a fixed day of the month (1-28).
type MonthlySchedule struct {
	Day int
}

// WeeklySchedule fires on a fixed weekday, 0 = Sunday.
type WeeklySchedule struct {
	Weekday time.Weekday
}

// InstallmentSchedule fires on the start date's day of month until Total
// payments have been made.
type InstallmentSchedule struct {
	Start time.Time
	Total int
	Paid  int
}

func (MonthlySchedule) isSchedule()     {}
func (WeeklySchedule) isSchedule()      {}
func (InstallmentSchedule) isSchedule() {}

// Completed reports whether the installment has exhausted its count.
func (s InstallmentSchedule) Completed() bool {
	return s.Paid >= s.Total
}

// ScheduleOf extracts the schedule variant from a rule row, rejecting rows
// whose fields are inconsistent with their declared type.
func ScheduleOf(rule models.RecurringRule) (Schedule, error) {
	switch rule.Type {
	case models.RecurrenceMonthly:
		if rule.DayOfMonth == nil {
			return nil, fmt.Errorf("%w: monthly rule %s missing day_of_month", ErrMalformedRule, rule.ID)
		}
		return MonthlySchedule{Day: *rule.DayOfMonth}, nil
	case models.RecurrenceWeekly:
		if rule.DayOfWeek == nil || *rule.DayOfWeek < 0 || *rule.DayOfWeek > 6 {
			return nil, fmt.Errorf("%w: weekly rule %s has invalid day_of_week", ErrMalformedRule, rule.ID)
		}
		return WeeklySchedule{Weekday: time.Weekday(*rule.DayOfWeek)}, nil
	case models.RecurrenceInstallment:
		if rule.TotalInstallments == nil || *rule.TotalInstallments < 1 {
			return nil, fmt.Errorf("%w: installment rule %s has invalid total_installments", ErrMalformedRule, rule.ID)
		}
		return InstallmentSchedule{
			Start: Midnight(rule.StartDate),
			Total: *rule.TotalInstallments,
			Paid:  rule.PaidInstallments,
		}, nil
	default:
		return nil, fmt.Errorf("%w: rule %s has unknown type %q", ErrMalformedRule, rule.ID, rule.Type)
	}
}
