package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	jobdomain "github.com/smallbiznis/scriptly/internal/job/domain"
	"gorm.io/gorm"
)

type repository struct{}

func NewRepository() jobdomain.Repository {
	return &repository{}
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, job *jobdomain.Job) error {
	return db.WithContext(ctx).Create(job).Error
}

func (r *repository) Claim(ctx context.Context, db *gorm.DB, workerID string, now time.Time) (*jobdomain.Job, error) {
	// Candidate selection and the claim are separate statements, so
	// the UPDATE re-checks status: if another worker won the race the
	// row count is zero and we try the next candidate.
	for i := 0; i < 3; i++ {
		var candidate jobdomain.Job
		err := db.WithContext(ctx).
			Where("status = ? AND visible_at <= ?", jobdomain.StatusPending, now).
			Order("visible_at ASC, id ASC").
			First(&candidate).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}

		res := db.WithContext(ctx).
			Model(&jobdomain.Job{}).
			Where("id = ? AND status = ?", candidate.ID, jobdomain.StatusPending).
			Updates(map[string]any{
				"status":     jobdomain.StatusActive,
				"claimed_by": workerID,
				"updated_at": now,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			candidate.Status = jobdomain.StatusActive
			candidate.ClaimedBy = &workerID
			candidate.UpdatedAt = now
			return &candidate, nil
		}
	}
	return nil, nil
}

func (r *repository) Requeue(ctx context.Context, db *gorm.DB, jobID snowflake.ID, attempts int, visibleAt time.Time, lastError string, now time.Time) error {
	return db.WithContext(ctx).
		Model(&jobdomain.Job{}).
		Where("id = ? AND status = ?", jobID, jobdomain.StatusActive).
		Updates(map[string]any{
			"status":     jobdomain.StatusPending,
			"attempts":   attempts,
			"visible_at": visibleAt,
			"claimed_by": nil,
			"last_error": lastError,
			"updated_at": now,
		}).Error
}

func (r *repository) Complete(ctx context.Context, db *gorm.DB, jobID snowflake.ID, now time.Time) error {
	return db.WithContext(ctx).
		Model(&jobdomain.Job{}).
		Where("id = ? AND status = ?", jobID, jobdomain.StatusActive).
		Updates(map[string]any{
			"status":      jobdomain.StatusCompleted,
			"dedup_key":   nil,
			"finished_at": now,
			"updated_at":  now,
		}).Error
}

func (r *repository) Fail(ctx context.Context, db *gorm.DB, jobID snowflake.ID, lastError string, now time.Time) error {
	return db.WithContext(ctx).
		Model(&jobdomain.Job{}).
		Where("id = ? AND status = ?", jobID, jobdomain.StatusActive).
		Updates(map[string]any{
			"status":      jobdomain.StatusFailed,
			"dedup_key":   nil,
			"last_error":  lastError,
			"finished_at": now,
			"updated_at":  now,
		}).Error
}

func (r *repository) RemovePendingByDedupKey(ctx context.Context, db *gorm.DB, dedupKey string) (bool, error) {
	res := db.WithContext(ctx).
		Where("dedup_key = ? AND status = ?", dedupKey, jobdomain.StatusPending).
		Delete(&jobdomain.Job{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ReclaimStale(ctx context.Context, db *gorm.DB, cutoff time.Time, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&jobdomain.Job{}).
		Where("status = ? AND updated_at < ?", jobdomain.StatusActive, cutoff).
		Updates(map[string]any{
			"status":     jobdomain.StatusPending,
			"claimed_by": nil,
			"attempts":   gorm.Expr("attempts + 1"),
			"visible_at": now,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) TrimHistory(ctx context.Context, db *gorm.DB, keepCompleted, keepFailed int) (int64, error) {
	var removed int64
	for status, keep := range map[jobdomain.Status]int{
		jobdomain.StatusCompleted: keepCompleted,
		jobdomain.StatusFailed:    keepFailed,
	} {
		var cutoffIDs []snowflake.ID
		err := db.WithContext(ctx).
			Model(&jobdomain.Job{}).
			Where("status = ?", status).
			Order("finished_at DESC, id DESC").
			Offset(keep).
			Limit(1000).
			Pluck("id", &cutoffIDs).Error
		if err != nil {
			return removed, err
		}
		if len(cutoffIDs) == 0 {
			continue
		}
		res := db.WithContext(ctx).
			Where("id IN ?", cutoffIDs).
			Delete(&jobdomain.Job{})
		if res.Error != nil {
			return removed, res.Error
		}
		removed += res.RowsAffected
	}
	return removed, nil
}
