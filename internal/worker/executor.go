package worker

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/scriptly/internal/ai"
	"github.com/smallbiznis/scriptly/internal/clock"
	jobdomain "github.com/smallbiznis/scriptly/internal/job/domain"
	postdomain "github.com/smallbiznis/scriptly/internal/post/domain"
	publicationdomain "github.com/smallbiznis/scriptly/internal/publication/domain"
	quotadomain "github.com/smallbiznis/scriptly/internal/quota/domain"
	subscriptiondomain "github.com/smallbiznis/scriptly/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ExecutorParams struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	Clock           clock.Clock
	Generator       ai.Generator
	Models          ai.ModelPicker
	Quota           quotadomain.Service
	SubscriptionSvc subscriptiondomain.Service
	PostRepo        postdomain.Repository
	PublicationRepo publicationdomain.Repository
	Config          ExecutorConfig `optional:"true"`
}

type ExecutorConfig struct {
	GenerateTimeout time.Duration
}

func (c ExecutorConfig) withDefaults() ExecutorConfig {
	if c.GenerateTimeout <= 0 {
		c.GenerateTimeout = 30 * time.Second
	}
	return c
}

// Executor runs one claimed job to completion. A returned permanent
// error means the job must not be retried.
type Executor struct {
	db              *gorm.DB
	log             *zap.Logger
	clock           clock.Clock
	generator       ai.Generator
	models          ai.ModelPicker
	quota           quotadomain.Service
	subscriptionSvc subscriptiondomain.Service
	postRepo        postdomain.Repository
	publicationRepo publicationdomain.Repository
	cfg             ExecutorConfig
}

func NewExecutor(p ExecutorParams) *Executor {
	return &Executor{
		db:              p.DB,
		log:             p.Log.Named("worker.executor"),
		clock:           p.Clock,
		generator:       p.Generator,
		models:          p.Models,
		quota:           p.Quota,
		subscriptionSvc: p.SubscriptionSvc,
		postRepo:        p.PostRepo,
		publicationRepo: p.PublicationRepo,
		cfg:             p.Config.withDefaults(),
	}
}

func (e *Executor) Execute(ctx context.Context, job *jobdomain.Job) error {
	switch job.Kind {
	case jobdomain.KindGenerate:
		return e.executeGenerate(ctx, job)
	case jobdomain.KindPublish:
		return e.executePublish(ctx, job)
	default:
		return permanentf("unknown job kind %q", job.Kind)
	}
}

func (e *Executor) executeGenerate(ctx context.Context, job *jobdomain.Job) error {
	payload, err := job.DecodeGenerate()
	if err != nil {
		return permanentf("decode generate payload: %v", err)
	}

	// The quota is enforced again here, not just at admission: jobs
	// may sit in the queue across the month boundary or behind other
	// generations that consume the remaining budget.
	if err := e.quota.CheckAndReserve(ctx, job.SubjectID); err != nil {
		if errors.Is(err, quotadomain.ErrQuotaExceeded) {
			return permanent(err)
		}
		return err
	}

	post, err := e.postRepo.FindByID(ctx, e.db, payload.PostID)
	if err != nil {
		return err
	}
	if post == nil || post.SubjectID != job.SubjectID {
		return permanent(postdomain.ErrPostNotFound)
	}

	state, err := e.subscriptionSvc.GetBySubject(ctx, job.SubjectID)
	if err != nil {
		return err
	}

	genCtx, cancel := context.WithTimeout(ctx, e.cfg.GenerateTimeout)
	defer cancel()

	result, err := e.generator.Generate(genCtx, ai.Request{
		Topic: post.Topic,
		Tone:  post.Tone,
		Model: e.models.For(state.Status.Unmetered()),
	})
	if err != nil {
		return err
	}

	if err := e.postRepo.SetContent(ctx, e.db, post.ID, result.Content); err != nil {
		return err
	}

	if err := e.quota.RecordUsage(ctx, job.SubjectID, result.PromptTokens, result.CompletionTokens); err != nil {
		// Content is saved; losing the usage row costs one metered
		// credit, never the user's content.
		e.log.Error("record usage failed after generation",
			zap.Error(err),
			zap.String("subject_id", job.SubjectID),
			zap.Int64("post_id", post.ID.Int64()),
		)
	}

	e.log.Info("content generated",
		zap.String("subject_id", job.SubjectID),
		zap.Int64("post_id", post.ID.Int64()),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("completion_tokens", result.CompletionTokens),
	)
	return nil
}

func (e *Executor) executePublish(ctx context.Context, job *jobdomain.Job) error {
	payload, err := job.DecodePublish()
	if err != nil {
		return permanentf("decode publish payload: %v", err)
	}

	pub, err := e.publicationRepo.FindByID(ctx, e.db, payload.PublicationID)
	if err != nil {
		return err
	}
	if pub == nil {
		// Canceled between enqueue and claim. Nothing to send.
		e.log.Info("publication gone, skipping send",
			zap.Int64("publication_id", payload.PublicationID.Int64()),
		)
		return nil
	}
	if pub.SubjectID != job.SubjectID {
		// Park the row too. Leaving it scheduled would have every
		// poller tick enqueue a fresh job that fails the same way.
		if _, mfErr := e.publicationRepo.MarkFailed(ctx, e.db, pub.ID, e.clock.Now()); mfErr != nil {
			e.log.Error("mark publication failed",
				zap.Error(mfErr),
				zap.Int64("publication_id", pub.ID.Int64()),
			)
		}
		return permanent(publicationdomain.ErrPublicationNotFound)
	}

	won, err := e.publicationRepo.MarkSent(ctx, e.db, pub.ID, e.clock.Now())
	if err != nil {
		return err
	}
	if !won {
		// Another worker already sent it. At-least-once delivery of
		// the job, exactly-once send of the publication.
		e.log.Info("publication already sent",
			zap.Int64("publication_id", pub.ID.Int64()),
		)
		return nil
	}

	e.log.Info("publication sent",
		zap.String("subject_id", pub.SubjectID),
		zap.Int64("publication_id", pub.ID.Int64()),
		zap.Int64("post_id", pub.PostID.Int64()),
	)
	return nil
}
