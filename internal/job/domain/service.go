package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidKind = errors.New("invalid_job_kind")
	ErrJobNotFound = errors.New("job_not_found")
)

// EnqueueOptions tune a single enqueue. Zero values mean immediately
// visible, no dedup, and the configured default attempt ceiling.
type EnqueueOptions struct {
	Delay       time.Duration
	DedupKey    string
	MaxAttempts int
}

type Service interface {
	// Enqueue stores a job. With a dedup key, a second enqueue while
	// the first job is still queued is a no-op returning the nil job.
	Enqueue(ctx context.Context, kind Kind, subjectID string, payload any, opts EnqueueOptions) (*Job, error)

	// Claim hands the next runnable job to a worker, or nil.
	Claim(ctx context.Context, workerID string) (*Job, error)

	Complete(ctx context.Context, job *Job) error

	// Retry re-queues the job for another attempt after the given
	// delay. attempts must already count the attempt that failed.
	Retry(ctx context.Context, job *Job, attempts int, delay time.Duration, cause error) error

	// Fail marks the job terminally failed.
	Fail(ctx context.Context, job *Job, cause error) error

	// CancelPending removes a not-yet-claimed job by dedup key.
	CancelPending(ctx context.Context, dedupKey string) (bool, error)
}
