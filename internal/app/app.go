// Package app assembles the stores, external clients and services shared by
// the server and the command-line tools.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vanshika/ecocycle/backend/internal/config"
	"github.com/vanshika/ecocycle/backend/internal/geocode"
	"github.com/vanshika/ecocycle/backend/internal/graph"
	"github.com/vanshika/ecocycle/backend/internal/metrics"
	"github.com/vanshika/ecocycle/backend/internal/network"
	"github.com/vanshika/ecocycle/backend/internal/repository"
	"github.com/vanshika/ecocycle/backend/internal/service"
	"github.com/vanshika/ecocycle/backend/internal/verification"
)

// App holds the wired backend.
type App struct {
	Config        config.Config
	Logger        *slog.Logger
	Store         repository.Store
	Graph         *network.Graph
	Metrics       *metrics.Metrics
	Places        *geocode.Client
	Users         *service.UserService
	Ledger        *service.Ledger
	Notifications *service.NotificationService
	Reports       *service.ReportService
	Tasks         *service.TaskService
}

// Options tunes Build.
type Options struct {
	// Metrics, when non-nil, receives ledger and task events.
	Metrics *metrics.Metrics
	// Store overrides the configured store.
	Store repository.Store
	// Model overrides the configured classifier model.
	Model verification.Model
}

// Build connects to the configured backends and constructs the services.
// The caller must Close the returned App.
func Build(ctx context.Context, logger *slog.Logger, cfg config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg, Logger: logger, Metrics: opts.Metrics}

	store := opts.Store
	if store == nil {
		var err error
		store, err = buildStore(ctx, logger, cfg.Database)
		if err != nil {
			return nil, err
		}
	}
	a.Store = store

	graphClient, err := buildGraphClient(ctx, logger, cfg.Graph)
	switch {
	case errors.Is(err, graph.ErrMissingURI):
		logger.Info("collection graph disabled", "reason", "GRAPH_URI not set")
	case err != nil:
		a.Close(ctx)
		return nil, err
	}
	a.Graph = network.New(graphClient)

	model := opts.Model
	if model == nil {
		model = buildModel(ctx, logger, cfg.Classifier)
	}
	policy := cfg.Policy
	classifier := verification.NewClassifier(model,
		verification.WithThreshold(policy.ConfidenceThreshold),
		verification.WithTimeout(cfg.Classifier.Timeout),
		verification.WithLogger(logger.With("component", "classifier")),
	)

	a.Places = geocode.NewClient(cfg.Places.BaseURL, cfg.Places.APIKey, cfg.Places.Timeout)

	servicePolicy := service.Policy{
		ReportAward:     policy.ReportAward,
		CollectAwardMin: policy.CollectAwardMin,
		CollectAwardMax: policy.CollectAwardMax,
	}
	a.Users = service.NewUserService(store)
	a.Ledger = service.NewLedger(store, logger).WithCatalog(policy.Prizes).WithObserver(observer(opts.Metrics))
	a.Notifications = service.NewNotificationService(store)
	a.Reports = service.NewReportService(service.ReportServiceDeps{
		Users:      a.Users,
		Store:      store,
		Ledger:     a.Ledger,
		Notifier:   a.Notifications,
		Classifier: classifier,
		Policy:     servicePolicy,
		Logger:     logger,
	})
	a.Tasks = service.NewTaskService(service.TaskServiceDeps{
		Store:      store,
		Users:      store,
		Ledger:     a.Ledger,
		Notifier:   a.Notifications,
		Classifier: classifier,
		Recorder:   a.Graph,
		Observer:   observer(opts.Metrics),
		Policy:     servicePolicy,
		Logger:     logger,
	})
	return a, nil
}

// Close releases the graph driver and the store.
func (a *App) Close(ctx context.Context) {
	if a.Graph != nil {
		if err := a.Graph.Close(ctx); err != nil {
			a.Logger.Warn("closing graph client failed", "error", err)
		}
	}
	if a.Store != nil {
		a.Store.Close()
	}
}

// PollInterval returns the notification poll interval from the policy.
func (a *App) PollInterval() time.Duration {
	if a.Config.Policy.PollInterval > 0 {
		return a.Config.Policy.PollInterval
	}
	return service.DefaultPollInterval
}

func observer(m *metrics.Metrics) service.Observer {
	if m == nil {
		return nil
	}
	return m
}

func buildStore(ctx context.Context, logger *slog.Logger, cfg config.DatabaseConfig) (repository.Store, error) {
	if cfg.URL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		return repository.NewMemoryStore(), nil
	}
	store, err := repository.NewPostgresStore(ctx, repository.PostgresOptions{
		DSN:      cfg.URL,
		MaxConns: int32(cfg.MaxConns),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	logger.Info("connected to postgres")
	return store, nil
}

func buildGraphClient(ctx context.Context, logger *slog.Logger, cfg config.GraphConfig) (graph.Client, error) {
	if cfg.URI == "" {
		return nil, graph.ErrMissingURI
	}
	client, err := graph.NewNeo4jClient(ctx, graph.Options{
		URI:            cfg.URI,
		Database:       cfg.Database,
		Username:       cfg.Username,
		Password:       cfg.Password,
		MaxConnections: cfg.MaxConnections,
	})
	if err != nil {
		return nil, fmt.Errorf("create graph client: %w", err)
	}
	logger.Info("connected to graph", "uri", cfg.URI, "database", cfg.Database)
	return client, nil
}

func buildModel(ctx context.Context, logger *slog.Logger, cfg config.ClassifierConfig) verification.Model {
	model, err := verification.NewGeminiModel(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		logger.Warn("image classifier unavailable", "error", err)
		return verification.UnavailableModel{}
	}
	logger.Info("image classifier ready", "model", model.Name())
	return model
}
