package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, job *Job) error

	// Claim atomically moves the oldest visible pending job to active
	// for the given worker. Returns nil when the queue is empty.
	Claim(ctx context.Context, db *gorm.DB, workerID string, now time.Time) (*Job, error)

	// Requeue returns a claimed job to pending with an updated attempt
	// count and a future visibility time.
	Requeue(ctx context.Context, db *gorm.DB, jobID snowflake.ID, attempts int, visibleAt time.Time, lastError string, now time.Time) error

	Complete(ctx context.Context, db *gorm.DB, jobID snowflake.ID, now time.Time) error

	Fail(ctx context.Context, db *gorm.DB, jobID snowflake.ID, lastError string, now time.Time) error

	// RemovePendingByDedupKey deletes a job only while it is still
	// pending. Active or finished jobs are left alone.
	RemovePendingByDedupKey(ctx context.Context, db *gorm.DB, dedupKey string) (bool, error)

	// ReclaimStale returns active jobs claimed before the cutoff to
	// pending so work lost to a dead worker is retried. The reclaim
	// counts as a spent attempt: a job that keeps killing its worker
	// exhausts the attempt budget instead of looping forever.
	ReclaimStale(ctx context.Context, db *gorm.DB, cutoff time.Time, now time.Time) (int64, error)

	// TrimHistory bounds the finished-job backlog, keeping the most
	// recent keepCompleted completed and keepFailed failed rows.
	TrimHistory(ctx context.Context, db *gorm.DB, keepCompleted, keepFailed int) (int64, error)
}
