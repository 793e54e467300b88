package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mediajob/worker-sdk/internal/config"
	"github.com/mediajob/worker-sdk/internal/exchange"
	"github.com/mediajob/worker-sdk/internal/httpapi"
	"github.com/mediajob/worker-sdk/internal/mediaio"
	"github.com/mediajob/worker-sdk/internal/processor"
	"github.com/mediajob/worker-sdk/internal/system"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the worker process",
	Long: `Run the worker process: connect to the broker (or the in-process
loopback exchange, with --broker-url=local), start the Processor, and
block until signaled.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("worker-name", "", "worker queue name (overrides worker.name)")
	serveCmd.Flags().String("broker-url", "", "AMQP URL, or \"local\" for the in-process loopback exchange (overrides broker.url)")

	mustBindPFlag("worker.name", serveCmd.Flags().Lookup("worker-name"))
	mustBindPFlag("broker.url", serveCmd.Flags().Lookup("broker-url"))
}

func runServe(_ *cobra.Command, _ []string) error {
	logger := slog.Default()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	internal, closeExchange, err := buildExchange(cfg, logger)
	if err != nil {
		return fmt.Errorf("building exchange: %w", err)
	}
	defer closeExchange()

	proc := processor.New(internal, mediaio.OpenTS, passthroughCallback, system.NewCollector(), logger)

	if cfg.HTTP.Enabled {
		httpServer := httpapi.NewServer(httpapi.ServerConfig{
			Host:            cfg.HTTP.Host,
			Port:            cfg.HTTP.Port,
			ReadTimeout:     cfg.HTTP.Timeout,
			WriteTimeout:    cfg.HTTP.Timeout,
			IdleTimeout:     cfg.HTTP.Timeout,
			ShutdownTimeout: cfg.Worker.ShutdownDelay,
		}, proc, logger)

		go func() {
			if err := httpServer.Start(ctx); err != nil {
				logger.Error("status server exited", "error", err)
			}
		}()
	}

	logger.Info("worker starting", "worker", cfg.Worker.Name, "broker_local", cfg.Broker.IsLocal())
	return proc.Run(ctx)
}

// buildExchange wires a Remote (AMQP) or Local (in-process) InternalExchange
// per cfg.Broker, returning a cleanup func.
func buildExchange(cfg *config.Config, logger *slog.Logger) (exchange.InternalExchange, func(), error) {
	if cfg.Broker.IsLocal() {
		local := exchange.NewLocalExchange()
		return local, local.Close, nil
	}

	remote, err := exchange.NewRemoteExchange(exchange.RemoteConfig{
		URL:              cfg.Broker.URL,
		WorkerQueue:      cfg.Worker.Name,
		ResponseExchange: cfg.Broker.ResponseExchange,
		PrefetchCount:    cfg.Broker.PrefetchCount,
	}, logger)
	if err != nil {
		return nil, func() {}, err
	}
	return remote, func() { _ = remote.Close() }, nil
}

// passthroughCallback is the reference callback: it forwards each frame's
// raw payload to Output unchanged, demonstrating the Callback contract
// without depending on any particular codec.
func passthroughCallback(_ context.Context, _ uint64, _ int, frame mediaio.Frame) (mediaio.Artifact, error) {
	return frame.Data, nil
}
