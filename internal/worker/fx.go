package worker

import (
	"context"

	appconfig "github.com/smallbiznis/scriptly/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("worker",
	fx.Provide(
		func(cfg appconfig.Config) Config {
			c := DefaultConfig()
			c.Workers = cfg.WorkerCount
			c.DrainTimeout = cfg.WorkerDrainTimeout
			return c
		},
		func(cfg appconfig.Config) ExecutorConfig {
			return ExecutorConfig{GenerateTimeout: cfg.GenerateTimeout}
		},
		NewExecutor,
		NewPool,
	),
	fx.Invoke(runPool),
)

func runPool(lc fx.Lifecycle, pool *Pool) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			runCtx, cancel := context.WithCancel(context.Background())

			pool.Start(runCtx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					// Stop claiming, then let in-flight jobs finish up
					// to the drain timeout.
					cancel()
					pool.Drain()
					return nil
				},
			})

			return nil
		},
	})
}
