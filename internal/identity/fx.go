package identity

import (
	"github.com/smallbiznis/scriptly/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("identity",
	fx.Provide(
		func(cfg config.Config) Resolver {
			devSubject := ""
			if cfg.IsDevelopment() {
				devSubject = cfg.DevSubjectID
			}
			return NewBearerResolver(devSubject)
		},
	),
)
