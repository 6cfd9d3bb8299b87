package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rajveerkhosa/sscs/internal/cli"
	"github.com/rajveerkhosa/sscs/internal/common"
	"github.com/rajveerkhosa/sscs/internal/config"
	"github.com/rajveerkhosa/sscs/internal/engine"
	"github.com/rajveerkhosa/sscs/internal/fuel"
	"github.com/rajveerkhosa/sscs/internal/model"
	"github.com/rajveerkhosa/sscs/internal/portal"
	"github.com/rajveerkhosa/sscs/internal/tracker"
	"github.com/rajveerkhosa/sscs/internal/week"
)

func backfillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Re-run the pipeline for past weeks",
		Long: `Fetch and record several past weeks, oldest first, so the tracker
rows land in chronological order. Each week gets the same treatment as
a normal update, including rolling window enforcement.`,
		RunE: runBackfill,
	}

	// Flags
	cmd.Flags().IntP("weeks", "w", 4, "Number of past weeks to backfill")
	cmd.Flags().String("end", "", "Last week to backfill, as a date inside it (format: 2025-10-19; default: last completed week)")
	cmd.Flags().Bool("show-browser", false, "Run the browser visibly instead of headless")

	// Bind to viper
	_ = viper.BindPFlag("backfill.weeks", cmd.Flags().Lookup("weeks"))
	_ = viper.BindPFlag("backfill.end", cmd.Flags().Lookup("end"))
	_ = viper.BindPFlag("backfill.show_browser", cmd.Flags().Lookup("show-browser"))

	return cmd
}

func runBackfill(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	weeks := viper.GetInt("backfill.weeks")
	if weeks < 1 {
		return fmt.Errorf("--weeks must be at least 1, got %d", weeks)
	}

	end := time.Now()
	if raw := viper.GetString("backfill.end"); raw != "" {
		end, err = time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --end date %q: %w", raw, err)
		}
	}

	windows := backfillWindows(end, weeks)
	slog.Info("Starting backfill",
		"weeks", weeks,
		"from", windows[0].Label,
		"to", windows[len(windows)-1].Label)

	bar := progressbar.NewOptions(len(windows),
		progressbar.OptionSetDescription("Backfilling weeks"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	showBrowser := viper.GetBool("backfill.show_browser")

	for _, window := range windows {
		if err := ctx.Err(); err != nil {
			return err
		}

		// One browser session per week keeps a portal hiccup in one
		// window from poisoning the rest of the run.
		session, err := portal.NewSession(ctx, cfg.Portal, showBrowser)
		if err != nil {
			return err
		}

		eng := engine.New(session, fuel.New(cfg.Fuel), tracker.New(cfg.Tracker), cfg.Fuel)

		result, err := eng.Run(ctx, window, engine.Options{})
		if err != nil {
			return common.NewUserError(fmt.Sprintf("backfill stopped at week %s", window.Label), err)
		}

		_ = bar.Add(1)
		slog.Info("Week recorded",
			"week", window.Label,
			"total", cli.Gallons(result.Aggregate.GrandTotal))
	}

	_ = bar.Finish()
	slog.Info(cli.FormatSuccess(fmt.Sprintf("Backfilled %d weeks", len(windows))))
	return nil
}

// backfillWindows returns the count most recently completed weeks relative
// to end, ordered oldest first.
func backfillWindows(end time.Time, count int) []model.ReportingWindow {
	windows := make([]model.ReportingWindow, count)

	w := week.LastFullWeek(end)
	for i := count - 1; i >= 0; i-- {
		windows[i] = w
		w = week.LastFullWeek(w.End.AddDate(0, 0, -7))
	}

	return windows
}
