package post

import (
	"github.com/smallbiznis/scriptly/internal/post/repository"
	"github.com/smallbiznis/scriptly/internal/post/service"
	"go.uber.org/fx"
)

var Module = fx.Module("post",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
	),
)
