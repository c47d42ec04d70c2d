package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, pub *ScheduledPublication) error

	// FindByID returns nil when no publication exists.
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ScheduledPublication, error)

	// FindDue lists scheduled publications whose publish time has
	// arrived, oldest first.
	FindDue(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]ScheduledPublication, error)

	// MarkSent flips scheduled to sent. Returns false when the row was
	// no longer scheduled, meaning someone else already sent it.
	MarkSent(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)

	// MarkFailed flips scheduled to failed under the same guard.
	MarkFailed(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)

	// DeleteScheduled removes a publication only while still scheduled.
	DeleteScheduled(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)

	ListBySubject(ctx context.Context, db *gorm.DB, subjectID string, limit int) ([]ScheduledPublication, error)
}
