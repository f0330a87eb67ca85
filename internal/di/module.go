package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/adapter/broker"
	"github.com/polkiloo/storefront/internal/app"
	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/logger"
	"github.com/polkiloo/storefront/internal/metrics"
	"github.com/polkiloo/storefront/internal/pkg/auth"
	"github.com/polkiloo/storefront/internal/server/http/handlers"
	"github.com/polkiloo/storefront/internal/server/http/router"
	"github.com/polkiloo/storefront/internal/storage/postgres"
	"github.com/polkiloo/storefront/internal/storage/redis"
	"github.com/polkiloo/storefront/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		metrics.Module,
		auth.Module,
		postgres.Module,
		redis.Module,
		broker.Module,
		usecase.Module,
		fx.Provide(
			func(p broker.Publisher) usecase.EventPublisher { return p },
			func(f *app.StorefrontFacade) handlers.StorefrontFacade { return f },
			healthChecks,
		),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}

func healthChecks(pg *postgres.Storage, rs *redis.Store) app.HealthChecks {
	return app.HealthChecks{
		"postgres": pg,
		"redis":    rs,
	}
}
