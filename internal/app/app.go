package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/dominatehq/payportal/internal/config"
	"github.com/dominatehq/payportal/internal/domain/model"
	"github.com/dominatehq/payportal/internal/pubsub"
	"github.com/dominatehq/payportal/internal/storage/postgres"
	"github.com/dominatehq/payportal/internal/tracker"
	"github.com/dominatehq/payportal/internal/usecase"
	"github.com/dominatehq/payportal/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		newPortalFacade,
		newHTTPServer,
		newSettlementWatcher,
		newGlobalWatcher,
	),
	fx.Invoke(registerLifecycle),
)

type facadeParams struct {
	fx.In

	Orders   *usecase.OrderUseCase
	Licenses *usecase.LicenseUseCase
	Admin    *usecase.AdminUseCase
	Storage  *postgres.Storage
	Config   *config.Config
}

func newPortalFacade(p facadeParams) *PortalFacade {
	return NewPortalFacade(p.Orders, p.Licenses, p.Admin, p.Storage, p.Config.BackendToken)
}

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type workerParams struct {
	fx.In

	Facade *PortalFacade
	Config *config.Config
	Logger *slog.Logger
}

func newSettlementWatcher(p workerParams) *worker.SettlementWatcher {
	return worker.NewSettlementWatcher(
		p.Facade,
		p.Config.PollInterval,
		p.Config.MaxOrdersBatch,
		p.Config.WorkerPoolSize,
		p.Logger,
	)
}

type globalWatcherParams struct {
	fx.In

	Events *pubsub.Manager
	Logger *slog.Logger
}

func newGlobalWatcher(p globalWatcherParams) *tracker.GlobalWatcher {
	return tracker.NewGlobalWatcher(p.Events, func(event model.PaymentEvent) {
		p.Logger.Info("payment status changed",
			slog.String("order", event.OrderID),
			slog.String("status", string(event.NewStatus)),
		)
	})
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Worker     *worker.SettlementWatcher
	Global     *tracker.GlobalWatcher
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting payportal", slog.String("addr", p.Server.Addr))
			if p.Config.BackendToken == "" {
				p.Logger.Warn("backend token not configured, settlement sweeps will reach the backend unauthenticated")
			}
			p.Worker.Start(ctx)
			if err := p.Global.Start(ctx); err != nil {
				return err
			}
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Worker.Stop()
			p.Global.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("payportal stopped")
			return nil
		},
	})
}
