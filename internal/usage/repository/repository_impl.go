package repository

import (
	"context"
	"time"

	usagedomain "github.com/smallbiznis/scriptly/internal/usage/domain"
	"gorm.io/gorm"
)

type repository struct{}

func NewRepository() usagedomain.Repository {
	return &repository{}
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, record *usagedomain.UsageRecord) error {
	return db.WithContext(ctx).Create(record).Error
}

func (r *repository) CountInWindow(ctx context.Context, db *gorm.DB, subjectID string, from, to time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&usagedomain.UsageRecord{}).
		Where("subject_id = ? AND created_at >= ? AND created_at < ?", subjectID, from, to).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
