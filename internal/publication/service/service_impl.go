package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scriptly/internal/clock"
	jobdomain "github.com/smallbiznis/scriptly/internal/job/domain"
	postdomain "github.com/smallbiznis/scriptly/internal/post/domain"
	publicationdomain "github.com/smallbiznis/scriptly/internal/publication/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    publicationdomain.Repository
	PostSvc postdomain.Service
	Jobs    jobdomain.Service
}

type service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    publicationdomain.Repository
	postSvc postdomain.Service
	jobs    jobdomain.Service
}

func NewService(p ServiceParam) publicationdomain.Service {
	return &service{
		db:      p.DB,
		log:     p.Log.Named("publication.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		postSvc: p.PostSvc,
		jobs:    p.Jobs,
	}
}

func (s *service) Schedule(ctx context.Context, subjectID string, postID snowflake.ID, publishAt time.Time) (*publicationdomain.ScheduledPublication, error) {
	now := s.clock.Now()
	if !publishAt.After(now) {
		return nil, publicationdomain.ErrPublishAtNotFuture
	}

	// Scheduling someone else's post reads as not found.
	if _, err := s.postSvc.GetOwned(ctx, subjectID, postID); err != nil {
		return nil, err
	}

	pub := &publicationdomain.ScheduledPublication{
		ID:        s.genID.Generate(),
		PostID:    postID,
		SubjectID: subjectID,
		PublishAt: publishAt.UTC(),
		Status:    publicationdomain.StatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, s.db, pub); err != nil {
		return nil, err
	}

	s.log.Info("publication scheduled",
		zap.String("subject_id", subjectID),
		zap.Int64("post_id", postID.Int64()),
		zap.Int64("publication_id", pub.ID.Int64()),
		zap.Time("publish_at", pub.PublishAt),
	)
	return pub, nil
}

func (s *service) Cancel(ctx context.Context, subjectID string, id snowflake.ID) error {
	pub, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if pub == nil || pub.SubjectID != subjectID {
		return publicationdomain.ErrPublicationNotFound
	}

	removed, err := s.repo.DeleteScheduled(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !removed {
		// Already sent, failed, or mid-flight.
		return publicationdomain.ErrPublicationNotFound
	}

	if _, err := s.jobs.CancelPending(ctx, publicationdomain.JobDedupKey(id)); err != nil {
		// The job will still CAS against the deleted row and no-op.
		s.log.Warn("failed to cancel queued publish job", zap.Error(err), zap.Int64("publication_id", id.Int64()))
	}
	return nil
}

func (s *service) List(ctx context.Context, subjectID string, limit int) ([]publicationdomain.ScheduledPublication, error) {
	return s.repo.ListBySubject(ctx, s.db, subjectID, limit)
}
