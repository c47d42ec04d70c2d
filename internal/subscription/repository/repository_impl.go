package repository

import (
	"context"
	"errors"

	subscriptiondomain "github.com/smallbiznis/scriptly/internal/subscription/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct{}

func NewRepository() subscriptiondomain.Repository {
	return &repository{}
}

func (r *repository) FindBySubject(ctx context.Context, db *gorm.DB, subjectID string) (*subscriptiondomain.SubscriptionState, error) {
	var state subscriptiondomain.SubscriptionState
	err := db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

func (r *repository) Upsert(ctx context.Context, db *gorm.DB, state *subscriptiondomain.SubscriptionState) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "subject_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status",
			"current_period_end",
			"external_subscription_id",
			"external_customer_id",
			"updated_at",
		}),
	}).Create(state).Error
}
