package backend

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/dominatehq/payportal/internal/config"
)

// Module exposes backend client implementation to fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	return NewHTTPClient(p.Config.BackendAddress, p.Logger)
}
