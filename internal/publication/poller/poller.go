// Package poller moves due publications onto the job queue. It never
// sends anything itself; the enqueue is deduplicated and the send is a
// compare-and-set, so overlapping ticks and multiple replicas are
// safe.
package poller

import (
	"context"
	"time"

	"github.com/smallbiznis/scriptly/internal/clock"
	jobdomain "github.com/smallbiznis/scriptly/internal/job/domain"
	"github.com/smallbiznis/scriptly/internal/lock"
	"github.com/smallbiznis/scriptly/internal/observability/metrics"
	publicationdomain "github.com/smallbiznis/scriptly/internal/publication/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const leaderLockKey = "scriptly:poller:leader"

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Repo   publicationdomain.Repository
	Jobs   jobdomain.Service
	Locker *lock.Locker `optional:"true"`
	Config Config       `optional:"true"`
}

type Poller struct {
	db     *gorm.DB
	log    *zap.Logger
	clock  clock.Clock
	repo   publicationdomain.Repository
	jobs   jobdomain.Service
	locker *lock.Locker
	cfg    Config
}

func NewPoller(p Params) *Poller {
	return &Poller{
		db:     p.DB,
		log:    p.Log.Named("publication.poller"),
		clock:  p.Clock,
		repo:   p.Repo,
		jobs:   p.Jobs,
		locker: p.Locker,
		cfg:    p.Config.withDefaults(),
	}
}

func (p *Poller) RunForever(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := p.RunOnce(ctx); err != nil {
			metrics.Pipeline().IncPollerError()
			p.log.Warn("poll failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) RunOnce(parentCtx context.Context) error {
	ctx, cancel := context.WithTimeout(parentCtx, p.cfg.RunTimeout)
	defer cancel()

	metrics.Pipeline().IncPollerTick()

	if p.locker != nil {
		token, ok, err := p.locker.TryLock(ctx, leaderLockKey, p.cfg.LockTTL)
		if err != nil {
			// Redis being down must not stop sends; proceed unlocked.
			p.log.Warn("leader lock unavailable, polling anyway", zap.Error(err))
		} else if !ok {
			return nil
		} else {
			defer func() {
				if err := p.locker.Release(context.WithoutCancel(ctx), leaderLockKey, token); err != nil {
					p.log.Warn("leader lock release failed", zap.Error(err))
				}
			}()
		}
	}

	due, err := p.repo.FindDue(ctx, p.db, p.clock.Now(), p.cfg.BatchSize)
	if err != nil {
		return err
	}
	metrics.Pipeline().AddPollerDue(len(due))
	if len(due) == 0 {
		return nil
	}

	enqueued := 0
	for _, pub := range due {
		job, err := p.jobs.Enqueue(ctx, jobdomain.KindPublish, pub.SubjectID,
			jobdomain.PublishPayload{PublicationID: pub.ID, PostID: pub.PostID},
			jobdomain.EnqueueOptions{DedupKey: publicationdomain.JobDedupKey(pub.ID)})
		if err != nil {
			p.log.Warn("enqueue publish job failed",
				zap.Error(err),
				zap.Int64("publication_id", pub.ID.Int64()),
			)
			continue
		}
		if job != nil {
			enqueued++
		}
	}

	p.log.Info("poll complete",
		zap.Int("due", len(due)),
		zap.Int("enqueued", enqueued),
	)
	return nil
}
