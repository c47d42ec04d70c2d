package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scriptly/internal/ai"
	"github.com/smallbiznis/scriptly/internal/billing"
	"github.com/smallbiznis/scriptly/internal/clock"
	"github.com/smallbiznis/scriptly/internal/config"
	"github.com/smallbiznis/scriptly/internal/identity"
	"github.com/smallbiznis/scriptly/internal/job"
	"github.com/smallbiznis/scriptly/internal/lock"
	"github.com/smallbiznis/scriptly/internal/migration"
	"github.com/smallbiznis/scriptly/internal/observability"
	"github.com/smallbiznis/scriptly/internal/post"
	"github.com/smallbiznis/scriptly/internal/publication"
	"github.com/smallbiznis/scriptly/internal/quota"
	"github.com/smallbiznis/scriptly/internal/server"
	"github.com/smallbiznis/scriptly/internal/subscription"
	"github.com/smallbiznis/scriptly/internal/usage"
	"github.com/smallbiznis/scriptly/internal/worker"
	"github.com/smallbiznis/scriptly/pkg/db"
	"go.uber.org/fx"
)

// Single-process deployment: API, worker pool, publication poller and
// queue janitor in one binary. The split apps/ entrypoints run the
// same modules on separate deployments.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		lock.Module,

		identity.Module,
		subscription.Module,
		usage.Module,
		quota.Module,
		post.Module,
		ai.Module,
		job.Module,
		job.JanitorModule,
		publication.Module,
		publication.PollerModule,
		billing.Module,

		worker.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
