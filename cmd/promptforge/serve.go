package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxlab/promptforge/internal/server"
	"github.com/voxlab/promptforge/internal/tracing"
)

// serveCmd starts the HTTP API server
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the promptforge HTTP API server.

Required configuration:
  - PostgreSQL database (PROMPTFORGE_POSTGRES_URL or DATABASE_URL)

Optional:
  - Generative endpoint credential (GENERATIVE_API_KEY); without it the
    service runs in deterministic mock mode
  - Voice agent metrics (VOICE_AGENT_BASE_URL)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(ctx context.Context) error {
	slog.Info("starting promptforge API server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"model", cfg.Generative.Model,
		"voice_metrics", cfg.IsVoiceMetricsConfigured(),
	)

	shutdownTracer, err := tracing.InitTracer("promptforge")
	if err != nil {
		slog.Warn("failed to initialize tracing", "error", err)
	} else {
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				slog.Error("error shutting down tracer", "error", err)
			}
		}()
	}

	pool, s, err := initDB(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()
	slog.Info("database connection established")

	opt, client, err := buildOptimizer(s)
	if err != nil {
		return err
	}

	srv := server.NewServer(cfg, s, opt, client.Model())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
