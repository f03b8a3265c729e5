package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/vanshika/ecocycle/backend/internal/app"
	"github.com/vanshika/ecocycle/backend/internal/config"
	"github.com/vanshika/ecocycle/backend/internal/logging"
	"github.com/vanshika/ecocycle/backend/internal/service"
)

var (
	errMissingDataset = errors.New("dataset not found")
)

func main() {
	var (
		datasetDir  = flag.String("dataset-dir", "./seed-data", "Directory containing users.json and reports.json")
		usersPath   = flag.String("users", "", "Path to users.json (overrides dataset-dir)")
		reportsPath = flag.String("reports", "", "Path to reports.json (overrides dataset-dir)")
		workers     = flag.Int("workers", 4, "Number of concurrent workers for ingestion")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "ingest")

	if cfg.Database.URL == "" {
		logger.Error("DATABASE_URL is required for ingestion")
		os.Exit(1)
	}

	userFile, reportFile, err := resolveDatasetPaths(*datasetDir, *usersPath, *reportsPath)
	if err != nil {
		logger.Error("dataset resolution failed", "error", err)
		os.Exit(1)
	}

	var users []service.UserSeed
	if err := loadJSON(userFile, &users); err != nil {
		logger.Error("failed to load users", "error", err, "path", userFile)
		os.Exit(1)
	}
	if len(users) == 0 {
		logger.Error("users dataset empty", "path", userFile)
		os.Exit(1)
	}

	var reports []service.ReportSeed
	if err := loadJSON(reportFile, &reports); err != nil {
		logger.Error("failed to load reports", "error", err, "path", reportFile)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	backend, err := app.Build(ctx, logger, cfg, app.Options{})
	if err != nil {
		logger.Error("failed to initialise backend", "error", err)
		os.Exit(1)
	}
	defer backend.Close(context.Background())

	seeder := service.NewSeeder(backend.Users, backend.Reports, backend.Tasks, *workers)

	start := time.Now()
	logger.Info("ingesting users", "count", len(users), "workers", *workers)
	if err := seeder.SeedUsers(ctx, users); err != nil {
		logger.Error("user ingestion failed", "error", err)
		os.Exit(1)
	}

	logger.Info("ingesting reports", "count", len(reports))
	if err := seeder.SeedReports(ctx, reports); err != nil {
		logger.Error("report ingestion failed", "error", err)
		os.Exit(1)
	}

	logger.Info("ingestion complete", "duration", time.Since(start).String(), "users", len(users), "reports", len(reports))
}

func resolveDatasetPaths(baseDir, usersPath, reportsPath string) (string, string, error) {
	resolve := func(explicitPath, fallbackFile string) (string, error) {
		if explicitPath != "" {
			if _, err := os.Stat(explicitPath); err != nil {
				return "", fmt.Errorf("stat %s: %w", explicitPath, err)
			}
			return explicitPath, nil
		}
		path := filepath.Join(baseDir, fallbackFile)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", errMissingDataset, path)
		}
		return path, nil
	}

	usersFile, err := resolve(usersPath, "users.json")
	if err != nil {
		return "", "", err
	}
	reportsFile, err := resolve(reportsPath, "reports.json")
	if err != nil {
		return "", "", err
	}
	return usersFile, reportsFile, nil
}

func loadJSON(path string, target any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
