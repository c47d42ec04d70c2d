// Package janitor keeps the job table healthy: it reclaims work lost
// to dead workers and bounds the finished-job history.
package janitor

import (
	"context"
	"time"

	"github.com/smallbiznis/scriptly/internal/clock"
	jobdomain "github.com/smallbiznis/scriptly/internal/job/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Repo   jobdomain.Repository
	Config Config `optional:"true"`
}

type Janitor struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  jobdomain.Repository
	cfg   Config
}

func NewJanitor(p Params) *Janitor {
	return &Janitor{
		db:    p.DB,
		log:   p.Log.Named("job.janitor"),
		clock: p.Clock,
		repo:  p.Repo,
		cfg:   p.Config.withDefaults(),
	}
}

func (j *Janitor) RunForever(ctx context.Context) {
	ticker := time.NewTicker(j.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := j.RunOnce(ctx); err != nil {
			j.log.Warn("janitor run failed", zap.Error(err))
		}
	}
}

func (j *Janitor) RunOnce(parentCtx context.Context) error {
	ctx, cancel := context.WithTimeout(parentCtx, j.cfg.RunTimeout)
	defer cancel()

	now := j.clock.Now()
	reclaimed, err := j.repo.ReclaimStale(ctx, j.db, now.Add(-j.cfg.StaleAfter), now)
	if err != nil {
		return err
	}
	if reclaimed > 0 {
		j.log.Warn("reclaimed stale jobs", zap.Int64("count", reclaimed))
	}

	trimmed, err := j.repo.TrimHistory(ctx, j.db, j.cfg.KeepCompleted, j.cfg.KeepFailed)
	if err != nil {
		return err
	}
	if trimmed > 0 {
		j.log.Info("trimmed job history", zap.Int64("count", trimmed))
	}
	return nil
}
