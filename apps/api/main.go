package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scriptly/internal/billing"
	"github.com/smallbiznis/scriptly/internal/clock"
	"github.com/smallbiznis/scriptly/internal/config"
	"github.com/smallbiznis/scriptly/internal/identity"
	"github.com/smallbiznis/scriptly/internal/job"
	"github.com/smallbiznis/scriptly/internal/migration"
	"github.com/smallbiznis/scriptly/internal/observability"
	"github.com/smallbiznis/scriptly/internal/post"
	"github.com/smallbiznis/scriptly/internal/publication"
	"github.com/smallbiznis/scriptly/internal/quota"
	"github.com/smallbiznis/scriptly/internal/server"
	"github.com/smallbiznis/scriptly/internal/subscription"
	"github.com/smallbiznis/scriptly/internal/usage"
	"github.com/smallbiznis/scriptly/pkg/db"
	"go.uber.org/fx"
)

// The API process admits work and serves reads. Jobs queued here are
// executed by the worker deployment.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		identity.Module,
		subscription.Module,
		usage.Module,
		quota.Module,
		post.Module,
		job.Module,
		publication.Module,
		billing.Module,

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
