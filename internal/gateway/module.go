package gateway

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/nimbus-silo/gateway/config"
	"github.com/nimbus-silo/gateway/internal/silo"
	"github.com/nimbus-silo/gateway/internal/transport"
)

// Module provides the Gateway to the fx graph, starting and stopping its
// background goroutines with the application lifecycle.
var Module = fx.Module("gateway",
	fx.Provide(newFromConfig),
	fx.Invoke(registerLifecycle),
)

// newFromConfig adapts New's functional-options constructor to fx, which
// cannot inject a variadic parameter list directly.
func newFromConfig(
	cfg *config.Config,
	serializer transport.Serializer,
	messageCenter silo.MessageCenter,
	observer silo.ClientObserverRegistrar,
	logger *slog.Logger,
) *Gateway {
	return New(serializer, messageCenter, observer, logger,
		WithSenderQueues(cfg.Gateway.SenderQueues),
		WithSenderIntakeSize(cfg.Gateway.SenderIntakeSize),
		WithGraceWindow(cfg.Gateway.GraceWindow),
		WithRouteCacheTTL(cfg.Gateway.RouteCacheTTL),
		WithCleanupInterval(cfg.Gateway.CleanupInterval),
		WithAddress(cfg.Gateway.Address),
	)
}

func registerLifecycle(lc fx.Lifecycle, gw *Gateway) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			gw.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return gw.Stop(ctx)
		},
	})
}
