package lock

import (
	"github.com/smallbiznis/scriptly/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// Module wires the optional Redis client. Without REDIS_ADDR the
// locker is nil and callers fall back to running unlocked.
var Module = fx.Module("lock",
	fx.Provide(
		func(cfg config.Config) *redis.Client {
			if cfg.RedisAddr == "" {
				return nil
			}
			return redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
			})
		},
		NewLocker,
	),
)
