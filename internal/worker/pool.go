// Package worker drains the job queue with a bounded pool of
// goroutines. Delivery is at least once: a job that fails transiently
// is requeued with backoff until its attempt ceiling, then failed
// terminally with a logged reason.
package worker

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/smallbiznis/scriptly/internal/config"
	jobdomain "github.com/smallbiznis/scriptly/internal/job/domain"
	"github.com/smallbiznis/scriptly/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type PoolParams struct {
	fx.In

	Log      *zap.Logger
	Jobs     jobdomain.Service
	Executor *Executor
	Policy   *config.PolicyHolder
	Config   Config `optional:"true"`
}

type Pool struct {
	log      *zap.Logger
	jobs     jobdomain.Service
	executor *Executor
	policy   *config.PolicyHolder
	cfg      Config

	wg         sync.WaitGroup
	execCancel context.CancelFunc
}

func NewPool(p PoolParams) *Pool {
	return &Pool{
		log:      p.Log.Named("worker.pool"),
		jobs:     p.Jobs,
		executor: p.Executor,
		policy:   p.Policy,
		cfg:      p.Config.withDefaults(),
	}
}

// Start launches the workers. Canceling ctx stops claiming only;
// jobs already claimed keep running on a separate execution context
// until Drain cancels it.
func (p *Pool) Start(ctx context.Context) {
	execCtx, execCancel := context.WithCancel(context.WithoutCancel(ctx))
	p.execCancel = execCancel

	hostname, _ := os.Hostname()
	for i := 0; i < p.cfg.Workers; i++ {
		workerID := fmt.Sprintf("%s-%d", hostname, i)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.runWorker(ctx, execCtx, workerID)
		}()
	}
	p.log.Info("worker pool started", zap.Int("workers", p.cfg.Workers))
}

// Drain waits for in-flight jobs after the claim context is canceled.
// Past the deadline execution is canceled too; the aborted attempt is
// written back as a retry, so the job is requeued rather than left
// active until a janitor reclaim.
func (p *Pool) Drain() {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info("worker pool drained")
	case <-time.After(p.cfg.DrainTimeout):
		p.log.Warn("worker pool drain timed out", zap.Duration("timeout", p.cfg.DrainTimeout))
	}
	p.execCancel()
}

func (p *Pool) runWorker(claimCtx, execCtx context.Context, workerID string) {
	log := p.log.With(zap.String("worker_id", workerID))

	for {
		if claimCtx.Err() != nil {
			return
		}

		job, err := p.jobs.Claim(claimCtx, workerID)
		if err != nil {
			log.Warn("claim failed", zap.Error(err))
		}

		if job == nil {
			select {
			case <-claimCtx.Done():
				return
			case <-time.After(p.cfg.PollInterval):
			}
			continue
		}

		p.handle(execCtx, log, job)
	}
}

func (p *Pool) handle(ctx context.Context, log *zap.Logger, job *jobdomain.Job) {
	kind := string(job.Kind)
	log = log.With(
		zap.Int64("job_id", job.ID.Int64()),
		zap.String("kind", kind),
		zap.Int("attempt", job.Attempts+1),
	)

	started := time.Now()
	err := p.executor.Execute(ctx, job)
	metrics.Pipeline().ObserveJobDuration(kind, time.Since(started))

	// Status writes outlive an execution cancel at the drain deadline:
	// an aborted attempt must still land as a retry, not stay active.
	writeCtx := context.WithoutCancel(ctx)

	if err == nil {
		if err := p.jobs.Complete(writeCtx, job); err != nil {
			log.Error("complete failed", zap.Error(err))
			return
		}
		metrics.Pipeline().IncJobRun(kind, metrics.JobResultCompleted)
		return
	}

	attempt := job.Attempts + 1
	if isPermanent(err) || attempt >= job.MaxAttempts {
		reason := failureReason(err)
		if failErr := p.jobs.Fail(writeCtx, job, err); failErr != nil {
			log.Error("terminal fail write failed", zap.Error(failErr))
			return
		}
		metrics.Pipeline().IncJobRun(kind, metrics.JobResultFailed)
		metrics.Pipeline().IncTerminalFailure(kind, reason)
		log.Error("job failed terminally",
			zap.Error(err),
			zap.String("reason", reason),
			zap.Int("attempts", attempt),
		)
		return
	}

	delay := backoffDelay(p.policy.Get().Retry, attempt)
	if retryErr := p.jobs.Retry(writeCtx, job, attempt, delay, err); retryErr != nil {
		log.Error("requeue failed", zap.Error(retryErr))
		return
	}
	metrics.Pipeline().IncJobRun(kind, metrics.JobResultRetried)
	metrics.Pipeline().IncJobRetry(kind)
	log.Warn("job retried",
		zap.Error(err),
		zap.Duration("delay", delay),
	)
}
