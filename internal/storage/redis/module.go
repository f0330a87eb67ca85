package redis

import (
	"context"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// Module wires Redis backed cart, checkout session and submission lock stores.
var Module = fx.Options(
	fx.Provide(newClient, newStore),
	fx.Provide(
		func(s *Store) repository.CartStore { return s },
		func(s *Store) repository.CheckoutSessionStore { return s },
		func(s *Store) repository.SubmissionLock { return s },
	),
	fx.Invoke(registerLifecycle),
)

func newClient(cfg *config.Config) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

type storeParams struct {
	fx.In

	Client *goredis.Client
	Config *config.Config
	Logger *slog.Logger
}

func newStore(p storeParams) *Store {
	return NewStore(p.Client, p.Config.CartTTL, p.Logger)
}

func registerLifecycle(lc fx.Lifecycle, client *goredis.Client, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("redis is not reachable yet", slog.Any("error", err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
}
