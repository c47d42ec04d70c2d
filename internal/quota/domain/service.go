// Package domain defines the monthly generation quota contract.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrQuotaExceeded marks a permanent, user-facing quota rejection.
// It is never retried by the worker pool.
var ErrQuotaExceeded = errors.New("quota_exceeded")

// QuotaExceededError carries the limit for the user-facing message.
type QuotaExceededError struct {
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("monthly limit of %d generations reached. Upgrade to Pro to keep generating content.", e.Limit)
}

func (e *QuotaExceededError) Unwrap() error { return ErrQuotaExceeded }

// Usage summarizes a subject's position within the current quota period.
type Usage struct {
	SubjectID   string    `json:"subject_id"`
	Used        int64     `json:"used"`
	Limit       int       `json:"limit"`
	Unmetered   bool      `json:"unmetered"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

type Service interface {
	// CheckAndReserve gates one generation for the subject. Unmetered
	// tiers always pass. The check is not transactionally linked to
	// RecordUsage: concurrent generations near the boundary may both
	// pass, which makes the limit a documented soft limit.
	CheckAndReserve(ctx context.Context, subjectID string) error

	// RecordUsage appends one usage row after a successful generation.
	RecordUsage(ctx context.Context, subjectID string, promptTokens, completionTokens int) error

	// CurrentUsage reports the subject's consumption in the current
	// calendar month.
	CurrentUsage(ctx context.Context, subjectID string) (Usage, error)
}
