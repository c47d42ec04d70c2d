package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scriptly/internal/ai"
	"github.com/smallbiznis/scriptly/internal/clock"
	"github.com/smallbiznis/scriptly/internal/config"
	"github.com/smallbiznis/scriptly/internal/job"
	"github.com/smallbiznis/scriptly/internal/lock"
	"github.com/smallbiznis/scriptly/internal/migration"
	"github.com/smallbiznis/scriptly/internal/observability"
	"github.com/smallbiznis/scriptly/internal/post"
	"github.com/smallbiznis/scriptly/internal/publication"
	"github.com/smallbiznis/scriptly/internal/quota"
	"github.com/smallbiznis/scriptly/internal/subscription"
	"github.com/smallbiznis/scriptly/internal/usage"
	"github.com/smallbiznis/scriptly/internal/worker"
	"github.com/smallbiznis/scriptly/pkg/db"
	"go.uber.org/fx"
)

// The worker process drains the job queue, polls for due publications
// and maintains the queue tables. Scale it independently of the API.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		lock.Module,

		subscription.Module,
		usage.Module,
		quota.Module,
		post.Module,
		ai.Module,
		job.Module,
		job.JanitorModule,
		publication.Module,
		publication.PollerModule,

		worker.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}
