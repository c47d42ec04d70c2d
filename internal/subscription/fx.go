package subscription

import (
	"github.com/smallbiznis/scriptly/internal/subscription/repository"
	"github.com/smallbiznis/scriptly/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
	),
)
