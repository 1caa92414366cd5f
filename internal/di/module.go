package di

import (
	"go.uber.org/fx"

	"github.com/dominatehq/payportal/internal/adapter/backend"
	"github.com/dominatehq/payportal/internal/app"
	"github.com/dominatehq/payportal/internal/config"
	"github.com/dominatehq/payportal/internal/logger"
	"github.com/dominatehq/payportal/internal/pubsub"
	"github.com/dominatehq/payportal/internal/server/http/handlers"
	"github.com/dominatehq/payportal/internal/server/http/router"
	"github.com/dominatehq/payportal/internal/storage/postgres"
	"github.com/dominatehq/payportal/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		postgres.Module,
		backend.Module,
		pubsub.Module,
		usecase.Module,
		fx.Provide(func(facade *app.PortalFacade) handlers.PortalFacade { return facade }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
