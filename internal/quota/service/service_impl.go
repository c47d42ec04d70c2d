package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scriptly/internal/clock"
	"github.com/smallbiznis/scriptly/internal/config"
	quotadomain "github.com/smallbiznis/scriptly/internal/quota/domain"
	subscriptiondomain "github.com/smallbiznis/scriptly/internal/subscription/domain"
	usagedomain "github.com/smallbiznis/scriptly/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	Policy          *config.PolicyHolder
	GenID           *snowflake.Node
	Clock           clock.Clock
	UsageRepo       usagedomain.Repository
	SubscriptionSvc subscriptiondomain.Service
}

type service struct {
	db              *gorm.DB
	log             *zap.Logger
	policy          *config.PolicyHolder
	genID           *snowflake.Node
	clock           clock.Clock
	usageRepo       usagedomain.Repository
	subscriptionSvc subscriptiondomain.Service
}

func NewService(p ServiceParam) quotadomain.Service {
	return &service{
		db:              p.DB,
		log:             p.Log.Named("quota.service"),
		policy:          p.Policy,
		genID:           p.GenID,
		clock:           p.Clock,
		usageRepo:       p.UsageRepo,
		subscriptionSvc: p.SubscriptionSvc,
	}
}

func (s *service) CheckAndReserve(ctx context.Context, subjectID string) error {
	state, err := s.subscriptionSvc.GetBySubject(ctx, subjectID)
	if err != nil {
		return err
	}
	if state.Status.Unmetered() {
		return nil
	}

	limit := s.policy.Get().Quota.FreeMonthlyLimit
	from, to := s.currentPeriod()
	count, err := s.usageRepo.CountInWindow(ctx, s.db, subjectID, from, to)
	if err != nil {
		return err
	}

	if count >= int64(limit) {
		s.log.Info("quota exceeded",
			zap.String("subject_id", subjectID),
			zap.Int64("used", count),
			zap.Int("limit", limit),
		)
		return &quotadomain.QuotaExceededError{Limit: limit}
	}
	return nil
}

func (s *service) RecordUsage(ctx context.Context, subjectID string, promptTokens, completionTokens int) error {
	record := &usagedomain.UsageRecord{
		ID:               s.genID.Generate(),
		SubjectID:        subjectID,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
		CreatedAt:        s.clock.Now(),
	}
	return s.usageRepo.Insert(ctx, s.db, record)
}

func (s *service) CurrentUsage(ctx context.Context, subjectID string) (quotadomain.Usage, error) {
	state, err := s.subscriptionSvc.GetBySubject(ctx, subjectID)
	if err != nil {
		return quotadomain.Usage{}, err
	}

	from, to := s.currentPeriod()
	count, err := s.usageRepo.CountInWindow(ctx, s.db, subjectID, from, to)
	if err != nil {
		return quotadomain.Usage{}, err
	}

	return quotadomain.Usage{
		SubjectID:   subjectID,
		Used:        count,
		Limit:       s.policy.Get().Quota.FreeMonthlyLimit,
		Unmetered:   state.Status.Unmetered(),
		PeriodStart: from,
		PeriodEnd:   to,
	}, nil
}

// currentPeriod returns the current calendar-month window [start, end).
func (s *service) currentPeriod() (time.Time, time.Time) {
	now := s.clock.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
