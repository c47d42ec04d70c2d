package domain

import (
	"context"
	"errors"
)

var (
	// ErrMissingSubject rejects events that cannot be attributed to a
	// subject. Nothing is persisted for them.
	ErrMissingSubject = errors.New("billing_event_missing_subject")
)

// ApplyResult reports what the reconciler did with an event.
type ApplyResult string

const (
	ResultApplied   ApplyResult = "applied"
	ResultDuplicate ApplyResult = "duplicate"
	ResultIgnored   ApplyResult = "ignored"
)

type Reconciler interface {
	// Apply records the event and folds it into the subject's
	// subscription state. Replays of an already-recorded external id
	// return ResultDuplicate and change nothing.
	Apply(ctx context.Context, event ExternalEvent) (ApplyResult, error)
}
