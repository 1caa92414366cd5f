package pubsub

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/dominatehq/payportal/internal/config"
)

// Module wires the redis client and topic manager into the fx graph.
var Module = fx.Options(
	fx.Provide(newRedisClient, NewManager),
	fx.Invoke(registerLifecycle),
)

type redisParams struct {
	fx.In

	Config *config.Config
}

func newRedisClient(p redisParams) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: p.Config.RedisAddress})
}

type lifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    *redis.Client
	Manager   *Manager
	Logger    *slog.Logger
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := p.Client.Ping(ctx).Err(); err != nil {
				p.Logger.Warn("redis not reachable at startup", slog.String("error", err.Error()))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := p.Manager.Close(); err != nil {
				return err
			}
			return p.Client.Close()
		},
	})
}
