package job

import (
	"context"

	"github.com/smallbiznis/scriptly/internal/job/janitor"
	"github.com/smallbiznis/scriptly/internal/job/repository"
	"github.com/smallbiznis/scriptly/internal/job/service"
	"go.uber.org/fx"
)

var Module = fx.Module("job",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
	),
)

// JanitorModule runs queue maintenance. Only the worker process loads
// it so the API deployment does not compete for the cleanup work.
var JanitorModule = fx.Module("job.janitor",
	fx.Provide(janitor.NewJanitor),
	fx.Invoke(runJanitor),
)

func runJanitor(lc fx.Lifecycle, j *janitor.Janitor) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go j.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
