// Package engine sequences the weekly pipeline: reporting window, portal
// fetch per prefix, aggregation, tracker update.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rajveerkhosa/sscs/internal/config"
	"github.com/rajveerkhosa/sscs/internal/model"
	"github.com/rajveerkhosa/sscs/internal/service"
)

// Engine owns the run's top-level error handling. Any component failure
// aborts the remaining pipeline; the tracker is only touched after every
// fetch has succeeded.
type Engine struct {
	fetcher    service.TotalFetcher
	aggregator service.Aggregator
	updater    service.TrackerUpdater
	fuel       config.Fuel
}

// Options control optional pipeline passes.
type Options struct {
	// VerifyPagination runs the page-size cross-check on the first
	// configured prefix after the fetch pass.
	VerifyPagination bool
}

// New creates an Engine over the given collaborators.
func New(fetcher service.TotalFetcher, aggregator service.Aggregator, updater service.TrackerUpdater, fuel config.Fuel) *Engine {
	return &Engine{
		fetcher:    fetcher,
		aggregator: aggregator,
		updater:    updater,
		fuel:       fuel,
	}
}

// Run executes the pipeline for one reporting window. The browser session
// is released on every exit path.
func (e *Engine) Run(ctx context.Context, window model.ReportingWindow, opts Options) (service.RunResult, error) {
	started := time.Now()

	defer func() {
		if err := e.fetcher.Close(); err != nil {
			slog.Warn("Failed to close portal session", "error", err)
		}
	}()

	slog.Info("Starting weekly update",
		"week", window.Label,
		"start", window.Start.Format(time.DateOnly),
		"end", window.End.Format(time.DateOnly))

	if err := e.fetcher.Login(ctx); err != nil {
		return service.RunResult{}, fmt.Errorf("logging in to portal: %w", err)
	}

	totals, err := e.fetchAll(ctx, window)
	if err != nil {
		return service.RunResult{}, err
	}

	agg, err := e.aggregator.Aggregate(window, totals)
	if err != nil {
		return service.RunResult{}, fmt.Errorf("aggregating totals: %w", err)
	}

	if opts.VerifyPagination {
		if prefixes := e.fuel.AllPrefixes(); len(prefixes) > 0 {
			if err := e.fetcher.VerifyPagination(ctx, prefixes[0], window); err != nil {
				slog.Warn("Pagination check errored", "error", err)
			}
		}
	}

	sheets, err := e.updater.Update(ctx, agg)
	if err != nil {
		return service.RunResult{}, fmt.Errorf("updating tracker: %w", err)
	}

	result := service.RunResult{
		Window:    window,
		Aggregate: agg,
		Sheets:    sheets,
		Duration:  time.Since(started),
	}

	slog.Info("Weekly update completed",
		"week", window.Label,
		"grand_total", agg.GrandTotal,
		"sheets", len(sheets),
		"duration", result.Duration)

	return result, nil
}

// fetchAll retrieves one total per configured prefix, in category order.
// Per-prefix failures are not retried here; FetchTotal already carries the
// only retry budget in the system.
func (e *Engine) fetchAll(ctx context.Context, window model.ReportingWindow) ([]model.PrefixTotal, error) {
	prefixes := e.fuel.AllPrefixes()
	totals := make([]model.PrefixTotal, 0, len(prefixes))

	for _, prefix := range prefixes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		qty, err := e.fetcher.FetchTotal(ctx, prefix, window)
		if err != nil {
			return nil, fmt.Errorf("fetching prefix %s: %w", prefix, err)
		}
		totals = append(totals, model.PrefixTotal{Prefix: prefix, Quantity: qty})
	}

	return totals, nil
}
