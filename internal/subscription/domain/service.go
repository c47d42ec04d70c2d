package domain

import (
	"context"
	"errors"
)

var ErrMissingSubject = errors.New("missing_subject")

type Service interface {
	// GetBySubject returns the subject's current state, defaulting to
	// INACTIVE when no billing event has been seen for the subject.
	GetBySubject(ctx context.Context, subjectID string) (SubscriptionState, error)
}
