package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	publicationdomain "github.com/smallbiznis/scriptly/internal/publication/domain"
	"gorm.io/gorm"
)

type repository struct{}

func NewRepository() publicationdomain.Repository {
	return &repository{}
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, pub *publicationdomain.ScheduledPublication) error {
	return db.WithContext(ctx).Create(pub).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*publicationdomain.ScheduledPublication, error) {
	var pub publicationdomain.ScheduledPublication
	err := db.WithContext(ctx).First(&pub, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pub, nil
}

func (r *repository) FindDue(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]publicationdomain.ScheduledPublication, error) {
	var due []publicationdomain.ScheduledPublication
	err := db.WithContext(ctx).
		Where("status = ? AND publish_at <= ?", publicationdomain.StatusScheduled, now).
		Order("publish_at ASC, id ASC").
		Limit(limit).
		Find(&due).Error
	if err != nil {
		return nil, err
	}
	return due, nil
}

func (r *repository) MarkSent(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&publicationdomain.ScheduledPublication{}).
		Where("id = ? AND status = ?", id, publicationdomain.StatusScheduled).
		Updates(map[string]any{
			"status":     publicationdomain.StatusSent,
			"sent_at":    now,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) MarkFailed(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&publicationdomain.ScheduledPublication{}).
		Where("id = ? AND status = ?", id, publicationdomain.StatusScheduled).
		Updates(map[string]any{
			"status":     publicationdomain.StatusFailed,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) DeleteScheduled(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).
		Where("id = ? AND status = ?", id, publicationdomain.StatusScheduled).
		Delete(&publicationdomain.ScheduledPublication{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListBySubject(ctx context.Context, db *gorm.DB, subjectID string, limit int) ([]publicationdomain.ScheduledPublication, error) {
	var pubs []publicationdomain.ScheduledPublication
	q := db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("publish_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&pubs).Error; err != nil {
		return nil, err
	}
	return pubs, nil
}
