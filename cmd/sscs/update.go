package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rajveerkhosa/sscs/internal/cli"
	"github.com/rajveerkhosa/sscs/internal/common"
	"github.com/rajveerkhosa/sscs/internal/config"
	"github.com/rajveerkhosa/sscs/internal/engine"
	"github.com/rajveerkhosa/sscs/internal/fuel"
	"github.com/rajveerkhosa/sscs/internal/portal"
	"github.com/rajveerkhosa/sscs/internal/tracker"
	"github.com/rajveerkhosa/sscs/internal/week"
)

func updateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Fetch last week's volumes and update the tracker",
		Long: `Log in to the portal, fetch the completed week's per-prefix totals,
aggregate them by fuel category, and write the week into the tracker
workbook. A dated backup is taken before anything is modified.`,
		RunE: runUpdate,
	}

	// Flags
	cmd.Flags().Bool("show-browser", false, "Run the browser visibly instead of headless")
	cmd.Flags().Bool("verify-pagination", false, "Cross-check the footer total against a larger page size")

	// Bind to viper
	_ = viper.BindPFlag("update.show_browser", cmd.Flags().Lookup("show-browser"))
	_ = viper.BindPFlag("update.verify_pagination", cmd.Flags().Lookup("verify-pagination"))

	return cmd
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	window := week.LastFullWeek(time.Now())

	session, err := portal.NewSession(ctx, cfg.Portal, viper.GetBool("update.show_browser"))
	if err != nil {
		return err
	}

	eng := engine.New(session, fuel.New(cfg.Fuel), tracker.New(cfg.Tracker), cfg.Fuel)

	result, err := eng.Run(ctx, window, engine.Options{
		VerifyPagination: viper.GetBool("update.verify_pagination"),
	})
	if err != nil {
		return common.NewUserError(fmt.Sprintf("weekly update for %s failed", window.Label), err)
	}

	cli.RenderRunResult(os.Stdout, result)
	return nil
}
