package models

import (
	"time"

	"github.com/google/uuid"
)

// UserMode selects which default category set a user sees.
type UserMode string

const (
	ModePersonal UserMode = "PERSONAL"
	ModeBusiness UserMode = "BUSINESS"
)

// TransactionType distinguishes money in from money out.
type TransactionType string

const (
	TypeIncome  TransactionType = "INCOME"
	TypeExpense TransactionType = "EXPENSE"
)

// RecurrenceType tags the schedule variant of a RecurringRule.
type RecurrenceType string

const (
	RecurrenceMonthly     RecurrenceType = "MONTHLY"
	RecurrenceWeekly      RecurrenceType = "WEEKLY"
	RecurrenceInstallment RecurrenceType = "INSTALLMENT"
)

// SubscriptionStatus mirrors the billing provider's view of a user.
type SubscriptionStatus string

const (
	SubFreemium SubscriptionStatus = "FREEMIUM"
	SubActive   SubscriptionStatus = "ACTIVE"
	SubCanceled SubscriptionStatus = "CANCELED"
	SubPastDue  SubscriptionStatus = "PAST_DUE"
)

// User represents a user in the system.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Name      string    `json:"name"`
	Mode      UserMode  `gorm:"default:PERSONAL" json:"mode"`
	CreatedAt time.Time `json:"created_at"`
}

// Subscription tracks a user's billing status. The scheduler never reads it;
// only the CRUD handlers consult it for freemium gating.
type Subscription struct {
	ID        uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID          `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Status    SubscriptionStatus `gorm:"default:FREEMIUM" json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Category classifies transactions. Seeded per mode at startup.
type Category struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name      string          `gorm:"not null" json:"name"`
	Type      TransactionType `gorm:"not null" json:"type"`
	Mode      UserMode        `gorm:"not null" json:"mode"`
	CreatedAt time.Time       `json:"created_at"`
}

// Transaction represents a single ledger entry. Entries created by the
// recurring scheduler carry a back-reference in RecurringRuleID.
type Transaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Type            TransactionType `gorm:"not null" json:"type"`
	CategoryID      uuid.UUID       `gorm:"type:uuid;not null" json:"category_id"`
	Description     string          `json:"description"`
	AmountCents     int64           `gorm:"not null" json:"amount_cents"`
	Date            time.Time       `gorm:"not null;index" json:"date"`
	RecurringRuleID *uuid.UUID      `gorm:"type:uuid;index" json:"recurring_rule_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// RecurringRule is a user-declared repeating obligation. Exactly one of
// DayOfMonth, DayOfWeek or the installment fields is populated, matching
// Type; the scheduler package enforces that shape via ScheduleOf.
type RecurringRule struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Description       string          `gorm:"not null" json:"description"`
	AmountCents       int64           `gorm:"not null" json:"amount_cents"`
	TransactionType   TransactionType `gorm:"not null" json:"transaction_type"`
	Type              RecurrenceType  `gorm:"not null" json:"type"`
	CategoryID        uuid.UUID       `gorm:"type:uuid;not null" json:"category_id"`
	DayOfMonth        *int            `json:"day_of_month,omitempty"`
	DayOfWeek         *int            `json:"day_of_week,omitempty"`
	StartDate         time.Time       `gorm:"not null" json:"start_date"`
	TotalInstallments *int            `json:"total_installments,omitempty"`
	PaidInstallments  int             `gorm:"default:0" json:"paid_installments"`
	IsActive          bool            `gorm:"default:true" json:"is_active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// RecurringRun is the idempotency marker: at most one row per
// (recurring_rule_id, execution_date). The compound unique index is what
// makes concurrent scheduler invocations safe; nothing else guards it.
type RecurringRun struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	RecurringRuleID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rule_execution" json:"recurring_rule_id"`
	ExecutionDate   time.Time `gorm:"not null;uniqueIndex:idx_rule_execution" json:"execution_date"`
	TransactionID   uuid.UUID `gorm:"type:uuid;not null" json:"transaction_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// ChatMessage stores one turn of the AI assistant conversation.
type ChatMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Role      string    `gorm:"not null" json:"role"` // "user" or "assistant"
	Content   string    `gorm:"not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
