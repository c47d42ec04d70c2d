package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *UsageRecord) error
	// CountInWindow counts a subject's records with created_at in [from, to).
	CountInWindow(ctx context.Context, db *gorm.DB, subjectID string, from, to time.Time) (int64, error)
}
