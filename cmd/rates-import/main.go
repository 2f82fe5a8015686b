// One-shot import of exchange rate tables from a Google Sheet into the
// local database. Meant for cron or manual backfills.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"kopilka/internal/cache"
	"kopilka/internal/config"
	"kopilka/internal/core"
	"kopilka/internal/rates"
	"kopilka/internal/sheets"
	"kopilka/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	importer, err := sheets.NewImporterFromEnv(ctx)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets importer", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	rateStore := rates.NewStore(repo, cache.NewLRU[core.RateTable](cfg.RateCacheSize, cfg.RateCacheTTL))

	imported, err := importer.Import(ctx, rateStore)
	if err != nil {
		logger.Error("Rate import failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Rate import complete", "tables", imported)
}
