// Package backfill corrects malformed or placeholder postal codes on
// product listings by geocoding their address.
//
// Records are handled one at a time. Every query that reaches the
// geocoding provider is followed by a fixed delay. A geocoding failure
// only costs that record; a record-store failure stops the run.
package backfill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/duynhne/marketplace/internal/core/domain"
	"github.com/duynhne/marketplace/internal/geocode"
)

// DefaultDelay is the pause after each provider query.
const DefaultDelay = 500 * time.Millisecond

// Resolver looks up a postal code. cached is true when no request was
// sent to the provider.
type Resolver interface {
	Resolve(ctx context.Context, query string) (result geocode.Result, cached bool, err error)
}

// Outcome is the terminal state of one record.
type Outcome int

const (
	OutcomeValid Outcome = iota
	OutcomeInsufficientData
	OutcomeUpdated
	OutcomeNotFound
)

// String returns the log label of o.
func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeInsufficientData:
		return "insufficient-data"
	case OutcomeUpdated:
		return "updated"
	case OutcomeNotFound:
		return "not-found"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Summary counts what a run did. Failed covers both insufficient data and
// lookups that found nothing.
type Summary struct {
	Scanned  int
	Valid    int
	Updated  int
	Failed   int
	Queries  int
	DryRun   bool
	Duration time.Duration
}

// Job is one backfill pass over the product records.
type Job struct {
	store    domain.ProductRecordStore
	resolver Resolver
	delay    time.Duration
	dryRun   bool
	logger   zerolog.Logger
	wait     func(ctx context.Context, d time.Duration) error
}

// Option configures a Job.
type Option func(*Job)

// WithDelay sets the pause after each provider query. Negative means none.
func WithDelay(d time.Duration) Option {
	return func(j *Job) {
		if d < 0 {
			d = 0
		}
		j.delay = d
	}
}

// WithDryRun resolves codes but skips the write.
func WithDryRun(dryRun bool) Option {
	return func(j *Job) { j.dryRun = dryRun }
}

// WithLogger sets the job's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(j *Job) { j.logger = l }
}

// WithWait replaces the function used to pause between queries.
func WithWait(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(j *Job) {
		if wait != nil {
			j.wait = wait
		}
	}
}

// NewJob builds a Job over store using resolver for lookups.
func NewJob(store domain.ProductRecordStore, resolver Resolver, opts ...Option) *Job {
	j := &Job{
		store:    store,
		resolver: resolver,
		delay:    DefaultDelay,
		logger:   log.Logger,
		wait:     sleep,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Run scans every product and fixes invalid postal codes. The returned
// error is non-nil only for fatal conditions: the store failing or ctx
// being cancelled. The summary reflects the work done up to that point.
func (j *Job) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{DryRun: j.dryRun}

	products, err := j.store.ListAll(ctx)
	if err != nil {
		summary.Duration = time.Since(start)
		return summary, fmt.Errorf("list products: %w", err)
	}
	j.logger.Info().Int("count", len(products)).Bool("dry_run", j.dryRun).Msg("Postal code backfill started")

	for _, p := range products {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}

		summary.Scanned++
		outcome, queried, err := j.process(ctx, p)
		if queried {
			summary.Queries++
		}
		if err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}

		j.logger.Debug().Int64("product_id", p.ID).Stringer("outcome", outcome).Msg("Record processed")
		switch outcome {
		case OutcomeValid:
			summary.Valid++
		case OutcomeUpdated:
			summary.Updated++
		case OutcomeInsufficientData, OutcomeNotFound:
			summary.Failed++
		}
	}

	summary.Duration = time.Since(start)
	return summary, nil
}

// process drives one record to a terminal state. queried reports whether
// a request went out to the provider.
func (j *Job) process(ctx context.Context, p domain.Product) (outcome Outcome, queried bool, err error) {
	logger := j.logger.With().Int64("product_id", p.ID).Str("zip_code", p.ZipCode).Logger()

	if !IsInvalidPostalCode(p.ZipCode) {
		return OutcomeValid, false, nil
	}

	query := LookupQuery(p)
	if query == "" {
		logger.Warn().Msg("No location or city to geocode")
		return OutcomeInsufficientData, false, nil
	}

	result, cached, lookupErr := j.resolver.Resolve(ctx, query)
	if !cached {
		queried = true
		if err := j.wait(ctx, j.delay); err != nil {
			return OutcomeNotFound, queried, err
		}
	}
	if lookupErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(lookupErr, ctxErr) {
			return OutcomeNotFound, queried, ctxErr
		}
		logger.Warn().Err(lookupErr).Str("query", query).Msg("Geocode failed")
		return OutcomeNotFound, queried, nil
	}
	if !result.Found {
		logger.Warn().Str("query", query).Bool("cached", cached).Msg("No postal code found")
		return OutcomeNotFound, queried, nil
	}
	if IsInvalidPostalCode(result.PostalCode) {
		logger.Warn().Str("query", query).Str("candidate", result.PostalCode).Msg("Geocoded postal code is not usable")
		return OutcomeNotFound, queried, nil
	}

	if j.dryRun {
		logger.Info().Str("new_zip_code", result.PostalCode).Msg("Would update postal code")
		return OutcomeUpdated, queried, nil
	}

	if err := j.store.UpdateZipCode(ctx, p.ID, result.PostalCode); err != nil {
		return OutcomeNotFound, queried, fmt.Errorf("update product %d: %w", p.ID, err)
	}
	logger.Info().Str("new_zip_code", result.PostalCode).Msg("Postal code updated")
	return OutcomeUpdated, queried, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
