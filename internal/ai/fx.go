package ai

import (
	"github.com/smallbiznis/scriptly/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("ai",
	fx.Provide(
		func(cfg config.Config, log *zap.Logger) Generator {
			return NewOpenAIGenerator(OpenAIConfig{
				APIKey:  cfg.OpenAIAPIKey,
				BaseURL: cfg.OpenAIBaseURL,
				Timeout: cfg.GenerateTimeout,
			}, log)
		},
		func(cfg config.Config) ModelPicker {
			return ModelPicker{
				Standard: cfg.OpenAIModelStandard,
				Premium:  cfg.OpenAIModelPremium,
			}
		},
	),
)
