// Package domain contains persistence models for per-subject subscription state.
package domain

import (
	"time"
)

// Status represents lifecycle states for a subject's subscription,
// mirroring the billing provider's vocabulary.
type Status string

const (
	StatusInactive Status = "INACTIVE"
	StatusActive   Status = "ACTIVE"
	StatusTrialing Status = "TRIALING"
	StatusPastDue  Status = "PAST_DUE"
	StatusCanceled Status = "CANCELED"
	StatusUnpaid   Status = "UNPAID"
)

// Unmetered reports whether the status grants unlimited generation.
func (s Status) Unmetered() bool {
	return s == StatusActive || s == StatusTrialing
}

// SubscriptionState is the single current billing row for a subject.
// Mutated only by the billing reconciler.
type SubscriptionState struct {
	SubjectID              string     `gorm:"primaryKey;column:subject_id" json:"subject_id"`
	Status                 Status     `gorm:"type:text;not null;default:INACTIVE" json:"status"`
	CurrentPeriodEnd       *time.Time `gorm:"" json:"current_period_end,omitempty"`
	ExternalSubscriptionID *string    `gorm:"type:text" json:"external_subscription_id,omitempty"`
	ExternalCustomerID     *string    `gorm:"type:text" json:"external_customer_id,omitempty"`
	CreatedAt              time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (SubscriptionState) TableName() string { return "subscription_states" }
