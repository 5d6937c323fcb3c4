package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/urfave/cli/v2"

	"github.com/nimbus-silo/gateway/config"
	gw "github.com/nimbus-silo/gateway/internal/gateway"
	"github.com/nimbus-silo/gateway/internal/dashboard"
)

const (
	ServiceName      = "gateway"
	ServiceNamespace = "nimbus-silo"
)

var (
	version        = "0.0.0"
	commit         = "hash"
	commitDate     = time.Now().String()
	branch         = "branch"
	buildTimestamp = ""
)

func Run() error {
	app := &cli.App{
		Name:  ServiceName,
		Usage: "Client-facing Gateway for a nimbus-silo cluster",
		Commands: []*cli.Command{
			serverCmd(),
			statsCmd(),
		},
	}

	return app.Run(os.Args)
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	flags := pflag.NewFlagSet(ServiceName, pflag.ContinueOnError)
	flags.String("config_file", c.String("config_file"), "path to the configuration file")

	return config.Load(flags, func(cfg *config.Config) {
		slog.Info("CONFIG_RELOADED", slog.String("address", cfg.Gateway.Address))
	})
}

func serverCmd() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"s"},
		Usage:   "Run the Gateway",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config_file",
				Usage: "Path to the configuration file",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			app := NewApp(cfg)

			if err := app.Start(c.Context); err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			slog.Info("SHUTTING_DOWN")
			return app.Stop(context.Background())
		},
	}
}

// statsCmd runs a throwaway Gateway instance and renders its (empty, since
// nothing connects to a standalone instance) live dashboard — useful for
// smoke-testing the terminal UI and for operators who want the dashboard
// wired against a real deployment's admin endpoint in a future iteration.
func statsCmd() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Render a live terminal dashboard of Gateway occupancy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config_file",
				Usage: "Path to the configuration file",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			gateway := gw.New(
				nil, nil, nil, logger,
				gw.WithSenderQueues(cfg.Gateway.SenderQueues),
				gw.WithRouteCacheTTL(cfg.Gateway.RouteCacheTTL),
			)
			gateway.Start()
			defer gateway.Stop(context.Background())

			return dashboard.Run(gateway, time.Second)
		},
	}
}
