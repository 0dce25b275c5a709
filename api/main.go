package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/krsna-app/krsna/api/config"
	"github.com/krsna-app/krsna/api/server"
	"github.com/krsna-app/krsna/api/store"
	"github.com/krsna-app/krsna/pkg/otel"
	"github.com/krsna-app/krsna/shared/db"
)

func main() {
	cfg := config.Load()

	if cfg.Otel.Endpoint != "" {
		result, err := otel.Init(otel.Config{
			ServiceName:  "krsna-api",
			Environment:  cfg.Otel.Environment,
			OTLPEndpoint: cfg.Otel.Endpoint,
		})
		if err != nil {
			slog.Error("failed to initialize opentelemetry", "error", err)
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				result.Shutdown(shutdownCtx)
			}()
			slog.SetDefault(result.Logger)
			slog.Info("opentelemetry initialized", "endpoint", cfg.Otel.Endpoint)
		}
	} else {
		slog.SetDefault(slog.New(otel.NewPrettyHandler()))
		slog.Info("opentelemetry not configured, OTEL_EXPORTER_OTLP_ENDPOINT not set")
	}

	slog.Info("starting krsna api")
	slog.Info("server configured", "host", cfg.Server.Host, "port", cfg.Server.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slog.Info("connecting to database")
	pool, err := db.Connect(ctx, db.Config{URL: cfg.Database.URL, Timezone: "UTC"})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	slog.Info("database connected")

	s := store.New(pool)

	srv := server.NewServer(cfg, s)

	if cfg.Nudge.DisableSweep {
		slog.Info("nudge sweep disabled")
	} else {
		go srv.Scheduler().Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "host", cfg.Server.Host, "port", cfg.Server.Port)
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		slog.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-sigCh:
		slog.Info("received signal, shutting down", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		slog.Info("server stopped")
	}
}
