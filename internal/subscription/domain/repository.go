package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// FindBySubject returns nil when the subject has no row yet.
	FindBySubject(ctx context.Context, db *gorm.DB, subjectID string) (*SubscriptionState, error)
	Upsert(ctx context.Context, db *gorm.DB, state *SubscriptionState) error
}
