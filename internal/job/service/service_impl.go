package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scriptly/internal/clock"
	"github.com/smallbiznis/scriptly/internal/config"
	jobdomain "github.com/smallbiznis/scriptly/internal/job/domain"
	"github.com/smallbiznis/scriptly/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Policy *config.PolicyHolder
	Repo   jobdomain.Repository
}

type service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	policy *config.PolicyHolder
	repo   jobdomain.Repository
}

func NewService(p ServiceParam) jobdomain.Service {
	return &service{
		db:     p.DB,
		log:    p.Log.Named("job.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		policy: p.Policy,
		repo:   p.Repo,
	}
}

func (s *service) Enqueue(ctx context.Context, kind jobdomain.Kind, subjectID string, payload any, opts jobdomain.EnqueueOptions) (*jobdomain.Job, error) {
	if !kind.Valid() {
		return nil, jobdomain.ErrInvalidKind
	}

	encoded, err := jobdomain.EncodePayload(payload)
	if err != nil {
		return nil, err
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = s.policy.Get().Retry.MaxAttempts
	}

	now := s.clock.Now()
	job := &jobdomain.Job{
		ID:          s.genID.Generate(),
		Kind:        kind,
		SubjectID:   subjectID,
		Payload:     encoded,
		VisibleAt:   now.Add(opts.Delay),
		MaxAttempts: maxAttempts,
		Status:      jobdomain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if key := strings.TrimSpace(opts.DedupKey); key != "" {
		job.DedupKey = &key
	}

	if err := s.repo.Insert(ctx, s.db, job); err != nil {
		if job.DedupKey != nil && db.IsDuplicateKeyErr(err) {
			s.log.Debug("enqueue deduplicated",
				zap.String("kind", string(kind)),
				zap.String("dedup_key", *job.DedupKey),
			)
			return nil, nil
		}
		return nil, err
	}

	s.log.Info("job enqueued",
		zap.String("kind", string(kind)),
		zap.String("subject_id", subjectID),
		zap.Int64("job_id", job.ID.Int64()),
		zap.Time("visible_at", job.VisibleAt),
	)
	return job, nil
}

func (s *service) Claim(ctx context.Context, workerID string) (*jobdomain.Job, error) {
	return s.repo.Claim(ctx, s.db, workerID, s.clock.Now())
}

func (s *service) Complete(ctx context.Context, job *jobdomain.Job) error {
	return s.repo.Complete(ctx, s.db, job.ID, s.clock.Now())
}

func (s *service) Retry(ctx context.Context, job *jobdomain.Job, attempts int, delay time.Duration, cause error) error {
	now := s.clock.Now()
	return s.repo.Requeue(ctx, s.db, job.ID, attempts, now.Add(delay), cause.Error(), now)
}

func (s *service) Fail(ctx context.Context, job *jobdomain.Job, cause error) error {
	return s.repo.Fail(ctx, s.db, job.ID, cause.Error(), s.clock.Now())
}

func (s *service) CancelPending(ctx context.Context, dedupKey string) (bool, error) {
	return s.repo.RemovePendingByDedupKey(ctx, s.db, dedupKey)
}
