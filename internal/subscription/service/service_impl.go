package service

import (
	"context"
	"strings"

	subscriptiondomain "github.com/smallbiznis/scriptly/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo subscriptiondomain.Repository
}

type service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo subscriptiondomain.Repository
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	return &service{
		db:   p.DB,
		log:  p.Log.Named("subscription.service"),
		repo: p.Repo,
	}
}

func (s *service) GetBySubject(ctx context.Context, subjectID string) (subscriptiondomain.SubscriptionState, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return subscriptiondomain.SubscriptionState{}, subscriptiondomain.ErrMissingSubject
	}

	state, err := s.repo.FindBySubject(ctx, s.db, subjectID)
	if err != nil {
		return subscriptiondomain.SubscriptionState{}, err
	}
	if state == nil {
		return subscriptiondomain.SubscriptionState{
			SubjectID: subjectID,
			Status:    subscriptiondomain.StatusInactive,
		}, nil
	}
	return *state, nil
}
