// Command backfill corrects invalid postal codes on every product listing
// by geocoding the listing's address. It runs once and exits.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/duynhne/marketplace/config"
	"github.com/duynhne/marketplace/internal/backfill"
	database "github.com/duynhne/marketplace/internal/core"
	"github.com/duynhne/marketplace/internal/core/repository"
	"github.com/duynhne/marketplace/internal/geocode"
	"github.com/duynhne/marketplace/pkg/logger/zerolog"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()

	dryRun := flag.Bool("dry-run", cfg.Backfill.DryRun, "resolve postal codes without writing them")
	delay := flag.Duration("delay", cfg.GetBackfillDelay(), "pause after each geocoding request")
	cachePath := flag.String("cache", cfg.Geocode.CachePath, "optional JSON file caching geocode answers")
	flag.Parse()

	zerolog.Setup(cfg.Logging.Level)

	if err := cfg.ValidateBackfill(); err != nil {
		log.Error().Err(err).Msg("Configuration validation failed")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to database")
		return 1
	}
	defer func() {
		pool.Close()
		log.Info().Msg("Database pool closed")
	}()

	geo, err := geocode.NewClient(cfg.Geocode.BaseURL, cfg.Geocode.APIKey,
		geocode.WithCountry(cfg.Geocode.Country),
		geocode.WithHTTPClient(&http.Client{Timeout: cfg.GetGeocodeTimeout()}),
		geocode.WithLogger(log.Logger),
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build geocoding client")
		return 1
	}

	cache, err := geocode.LoadCache(*cachePath)
	if err != nil {
		log.Warn().Err(err).Str("path", *cachePath).Msg("Ignoring unreadable geocode cache")
		cache = geocode.NewCache()
	}

	job := backfill.NewJob(
		repository.NewProductRepository(pool),
		geocode.NewResolver(geo, cache),
		backfill.WithDelay(*delay),
		backfill.WithDryRun(*dryRun),
		backfill.WithLogger(log.Logger),
	)

	summary, runErr := job.Run(ctx)

	if err := geocode.SaveCache(*cachePath, cache); err != nil {
		log.Warn().Err(err).Str("path", *cachePath).Msg("Failed to save geocode cache")
	}

	event := log.Info()
	if runErr != nil {
		event = log.Error().Err(runErr)
	}
	event.
		Int("scanned", summary.Scanned).
		Int("valid", summary.Valid).
		Int("updated", summary.Updated).
		Int("failed", summary.Failed).
		Int("queries", summary.Queries).
		Bool("dry_run", summary.DryRun).
		Dur("duration", summary.Duration).
		Msg("Postal code backfill finished")

	if runErr != nil {
		return 1
	}
	return 0
}
