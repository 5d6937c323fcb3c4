package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	wmamqp "github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/fx"

	"github.com/nimbus-silo/gateway/config"
	"github.com/nimbus-silo/gateway/internal/adminhttp"
	gw "github.com/nimbus-silo/gateway/internal/gateway"
	"github.com/nimbus-silo/gateway/internal/silo"
	"github.com/nimbus-silo/gateway/internal/transport"
)

// ProvideLogger constructs the process-wide structured logger.
func ProvideLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

// ProvideWatermillPublisher constructs the watermill Publisher backing the
// outbound connection to the silo message center over AMQP.
func ProvideWatermillPublisher(cfg *config.Config) (message.Publisher, error) {
	wmLogger := watermill.NewStdLogger(false, false)
	return wmamqp.NewPublisher(wmamqp.NewDurablePubSubConfig(cfg.AMQP.URL, nil), wmLogger)
}

// ProvideMessageCenter adapts the watermill Publisher to the Gateway's
// MessageCenter collaborator contract.
func ProvideMessageCenter(pub message.Publisher, logger *slog.Logger) silo.MessageCenter {
	return silo.NewWatermillMessageCenter(pub, logger)
}

// ProvideObserver supplies the client observer registrar collaborator. No
// deployment-specific observer is wired by default.
func ProvideObserver() silo.ClientObserverRegistrar {
	return silo.NoopRegistrar{}
}

// ProvideSerializer supplies the wire serializer.
func ProvideSerializer() transport.Serializer {
	return transport.NewJSONSerializer()
}

// ProvideHTTPMux assembles the process's one HTTP surface: the WebSocket
// upgrade endpoint clients connect through, plus the admin endpoints.
func ProvideHTTPMux(gateway *gw.Gateway, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws", transport.NewWSHandler(logger, gateway.Events))
	mux.Handle("/", adminhttp.NewServer(gateway))
	return mux
}

func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
			ProvideLogger,
			ProvideWatermillPublisher,
			ProvideMessageCenter,
			ProvideObserver,
			ProvideSerializer,
			ProvideHTTPMux,
		),
		gw.Module,
		fx.Invoke(registerHTTPServer),
	)
}

func registerHTTPServer(lc fx.Lifecycle, cfg *config.Config, mux *http.ServeMux, logger *slog.Logger) {
	srv := &http.Server{Addr: cfg.Admin.ListenAddress, Handler: mux}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP_SERVER_FAILED", slog.Any("err", err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
