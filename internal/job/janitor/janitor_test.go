package janitor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/scriptly/internal/clock"
	jobdomain "github.com/smallbiznis/scriptly/internal/job/domain"
	jobrepo "github.com/smallbiznis/scriptly/internal/job/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestJanitor(t *testing.T, cfg Config) (*Janitor, *gorm.DB, *clock.FakeClock, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&jobdomain.Job{}))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC))
	j := NewJanitor(Params{
		DB:     db,
		Log:    zap.NewNop(),
		Clock:  clk,
		Repo:   jobrepo.NewRepository(),
		Config: cfg,
	})
	return j, db, clk, node
}

func TestRunOnceReclaimsStaleActiveJobs(t *testing.T) {
	j, db, clk, node := newTestJanitor(t, Config{StaleAfter: 10 * time.Minute})

	worker := "worker-dead"
	stale := jobdomain.Job{
		ID:          node.Generate(),
		Kind:        jobdomain.KindGenerate,
		SubjectID:   "user_1",
		Status:      jobdomain.StatusActive,
		ClaimedBy:   &worker,
		VisibleAt:   clk.Now().Add(-time.Hour),
		MaxAttempts: 3,
		CreatedAt:   clk.Now().Add(-time.Hour),
		UpdatedAt:   clk.Now().Add(-time.Hour),
	}
	fresh := jobdomain.Job{
		ID:          node.Generate(),
		Kind:        jobdomain.KindGenerate,
		SubjectID:   "user_2",
		Status:      jobdomain.StatusActive,
		ClaimedBy:   &worker,
		VisibleAt:   clk.Now(),
		MaxAttempts: 3,
		CreatedAt:   clk.Now(),
		UpdatedAt:   clk.Now(),
	}
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, db.Create(&fresh).Error)

	require.NoError(t, j.RunOnce(context.Background()))

	var reloaded jobdomain.Job
	require.NoError(t, db.First(&reloaded, "id = ?", stale.ID).Error)
	require.Equal(t, jobdomain.StatusPending, reloaded.Status)
	require.Nil(t, reloaded.ClaimedBy)
	require.Equal(t, 1, reloaded.Attempts, "a reclaim spends an attempt")

	var reloadedFresh jobdomain.Job
	require.NoError(t, db.First(&reloadedFresh, "id = ?", fresh.ID).Error)
	require.Equal(t, jobdomain.StatusActive, reloadedFresh.Status)
	require.Zero(t, reloadedFresh.Attempts)
}

// A job that stalls its worker on every run must not be reclaimed and
// re-executed forever: each reclaim burns an attempt until the budget
// is gone.
func TestRepeatedReclaimsExhaustAttemptBudget(t *testing.T) {
	j, db, clk, node := newTestJanitor(t, Config{StaleAfter: 10 * time.Minute})

	worker := "worker-crashing"
	job := jobdomain.Job{
		ID:          node.Generate(),
		Kind:        jobdomain.KindGenerate,
		SubjectID:   "user_1",
		Status:      jobdomain.StatusActive,
		ClaimedBy:   &worker,
		VisibleAt:   clk.Now().Add(-time.Hour),
		MaxAttempts: 3,
		CreatedAt:   clk.Now().Add(-time.Hour),
		UpdatedAt:   clk.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(&job).Error)

	for i := 1; i <= 3; i++ {
		require.NoError(t, j.RunOnce(context.Background()))

		var reloaded jobdomain.Job
		require.NoError(t, db.First(&reloaded, "id = ?", job.ID).Error)
		require.Equal(t, i, reloaded.Attempts)

		// Claimed again, then the worker dies again.
		require.NoError(t, db.Model(&jobdomain.Job{}).
			Where("id = ?", job.ID).
			Updates(map[string]any{
				"status":     jobdomain.StatusActive,
				"claimed_by": worker,
				"updated_at": clk.Now().Add(-time.Hour),
			}).Error)
	}

	var reloaded jobdomain.Job
	require.NoError(t, db.First(&reloaded, "id = ?", job.ID).Error)
	require.GreaterOrEqual(t, reloaded.Attempts, reloaded.MaxAttempts,
		"the next execution is the last before a terminal failure")
}

func TestRunOnceTrimsFinishedHistory(t *testing.T) {
	j, db, clk, node := newTestJanitor(t, Config{KeepCompleted: 3, KeepFailed: 2})

	mkFinished := func(status jobdomain.Status, finishedAt time.Time) {
		t.Helper()
		job := jobdomain.Job{
			ID:          node.Generate(),
			Kind:        jobdomain.KindGenerate,
			SubjectID:   "user_1",
			Status:      status,
			VisibleAt:   finishedAt,
			MaxAttempts: 3,
			CreatedAt:   finishedAt,
			UpdatedAt:   finishedAt,
			FinishedAt:  &finishedAt,
		}
		require.NoError(t, db.Create(&job).Error)
	}

	base := clk.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		mkFinished(jobdomain.StatusCompleted, base.Add(time.Duration(i)*time.Minute))
	}
	for i := 0; i < 4; i++ {
		mkFinished(jobdomain.StatusFailed, base.Add(time.Duration(i)*time.Minute))
	}

	require.NoError(t, j.RunOnce(context.Background()))

	var completed, failed int64
	require.NoError(t, db.Model(&jobdomain.Job{}).Where("status = ?", jobdomain.StatusCompleted).Count(&completed).Error)
	require.NoError(t, db.Model(&jobdomain.Job{}).Where("status = ?", jobdomain.StatusFailed).Count(&failed).Error)
	require.Equal(t, int64(3), completed)
	require.Equal(t, int64(2), failed)

	// The newest rows survive.
	var newest jobdomain.Job
	require.NoError(t, db.Where("status = ?", jobdomain.StatusCompleted).Order("finished_at DESC").First(&newest).Error)
	require.Equal(t, base.Add(4*time.Minute).Unix(), newest.FinishedAt.Unix())
}
