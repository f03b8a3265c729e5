package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/vanshika/ecocycle/backend/internal/app"
	"github.com/vanshika/ecocycle/backend/internal/config"
	"github.com/vanshika/ecocycle/backend/internal/identity"
	"github.com/vanshika/ecocycle/backend/internal/logging"
	"github.com/vanshika/ecocycle/backend/internal/metrics"
	"github.com/vanshika/ecocycle/backend/internal/server"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	var m *metrics.Metrics
	if cfg.HTTP.MetricsEnabled {
		m = metrics.New()
	}

	backend, err := app.Build(ctx, logger, cfg, app.Options{Metrics: m})
	if err != nil {
		logger.Error("failed to initialise backend", "error", err)
		os.Exit(1)
	}
	defer backend.Close(context.Background())

	apiHandlers := server.NewAPIHandlers(logger, server.APIDependencies{
		Identity:       identity.NewHeaderResolver(cfg.HTTP.IdentityHeader),
		Users:          backend.Users,
		Reports:        backend.Reports,
		Tasks:          backend.Tasks,
		Ledger:         backend.Ledger,
		Notifications:  backend.Notifications,
		Places:         backend.Places,
		Network:        backend.Graph,
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
	})

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.DependencyHealth{Store: backend.Store, Graph: backend.Graph},
		API:              apiHandlers,
		Metrics:          m,
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
		IdentityHeader:   cfg.HTTP.IdentityHeader,
	})

	srv := server.New(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
