package publication

import (
	"context"

	"github.com/smallbiznis/scriptly/internal/config"
	"github.com/smallbiznis/scriptly/internal/publication/poller"
	"github.com/smallbiznis/scriptly/internal/publication/repository"
	"github.com/smallbiznis/scriptly/internal/publication/service"
	"go.uber.org/fx"
)

var Module = fx.Module("publication",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
	),
)

// PollerModule runs the due-publication scan. Loaded by the worker
// process only.
var PollerModule = fx.Module("publication.poller",
	fx.Provide(
		func(cfg config.Config) poller.Config {
			c := poller.DefaultConfig()
			c.Interval = cfg.PollInterval
			return c
		},
		poller.NewPoller,
	),
	fx.Invoke(runPoller),
)

func runPoller(lc fx.Lifecycle, p *poller.Poller) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go p.RunForever(ctx)

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
