// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/rajveerkhosa/sscs/internal/model"
)

// TotalFetcher retrieves per-prefix quantity totals from the portal.
// Implementations own an authenticated browser session.
type TotalFetcher interface {
	// Login authenticates the session. It must be called exactly once,
	// before the first FetchTotal.
	Login(ctx context.Context) error
	// FetchTotal returns the quantity total for one prefix over the window.
	FetchTotal(ctx context.Context, prefix string, window model.ReportingWindow) (float64, error)
	// VerifyPagination re-reads one prefix's footer total under a different
	// page size and logs a warning if the values disagree. Never fatal.
	VerifyPagination(ctx context.Context, prefix string, window model.ReportingWindow) error
	// Close releases the browser process. Safe to call more than once.
	Close() error
}

// Aggregator combines per-prefix totals into category totals.
type Aggregator interface {
	Aggregate(window model.ReportingWindow, totals []model.PrefixTotal) (model.AggregatedWeek, error)
}

// TrackerUpdater mutates the tracker workbook for one aggregated week.
type TrackerUpdater interface {
	// Update backs up the workbook, writes the week's row into every
	// enabled sheet and commits atomically. It returns one summary per
	// sheet actually written.
	Update(ctx context.Context, agg model.AggregatedWeek) ([]SheetSummary, error)
}

// SheetSummary describes what Update did to a single sheet.
type SheetSummary struct {
	Sheet      string
	Row        int
	Inserted   bool
	HiddenRow  int
	BackupPath string
}

// RunResult is the orchestrator's report to its caller on full success.
type RunResult struct {
	Window    model.ReportingWindow
	Aggregate model.AggregatedWeek
	Sheets    []SheetSummary
	Duration  time.Duration
}

// RetryOptions configures the fixed-count, fixed-delay retry helper.
type RetryOptions struct {
	MaxAttempts int
	Delay       time.Duration
}
