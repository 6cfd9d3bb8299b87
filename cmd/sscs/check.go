package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rajveerkhosa/sscs/internal/cli"
	"github.com/rajveerkhosa/sscs/internal/config"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify credentials, config, workbook and portal reachability",
		Long: `Run every precondition check for the weekly update and report all
failures at once, so a broken environment can be fixed in one pass.`,
		RunE: runCheck,
	}
}

// checkResult is one precondition's outcome. A warning marks a degraded but
// non-blocking condition and does not count as a failure.
type checkResult struct {
	name string
	warn string
	err  error
}

func runCheck(_ *cobra.Command, _ []string) error {
	var failures int

	for _, r := range collectChecks() {
		switch {
		case r.err != nil:
			failures++
			slog.Error(cli.FormatError(fmt.Sprintf("%s: %v", r.name, r.err)))
		case r.warn != "":
			slog.Warn(cli.FormatWarning(fmt.Sprintf("%s: %s", r.name, r.warn)))
		default:
			slog.Info(cli.FormatSuccess(r.name))
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d check(s) failed", failures)
	}

	slog.Info(cli.FormatSuccess("All checks passed"))
	return nil
}

// collectChecks runs every precondition check. Path and URL checks read
// their targets straight from viper so they still run when the full config
// fails validation, for instance on missing credentials.
func collectChecks() []checkResult {
	results := []checkResult{
		{name: "credentials in environment", err: checkCredentials()},
	}

	_, cfgErr := config.Load()
	results = append(results, checkResult{name: "configuration loads and validates", err: cfgErr})

	results = append(results,
		checkPathResult("tracker workbook writable", "tracker.workbook", checkWritableFile),
		checkPathResult("backup directory writable", "tracker.backup_dir", checkWritableDir),
	)

	portal := checkResult{name: "portal reachable"}
	if loginURL := viper.GetString("portal.login_url"); loginURL == "" {
		portal.err = fmt.Errorf("portal.login_url not configured")
	} else {
		portal.warn, portal.err = checkPortal(loginURL)
	}
	results = append(results, portal)

	return results
}

func checkPathResult(name, key string, check func(string) error) checkResult {
	path := viper.GetString(key)
	if path == "" {
		return checkResult{name: name, err: fmt.Errorf("%s not configured", key)}
	}
	return checkResult{name: name, err: check(path)}
}

func checkCredentials() error {
	var missing []string
	for _, name := range []string{config.UsernameEnv, config.PasswordEnv} {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("not set: %v", missing)
	}
	return nil
}

// checkWritableFile verifies the workbook exists and can be opened for
// writing, which also catches it being held open by Excel.
func checkWritableFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("cannot open for writing: %w", err)
	}
	return f.Close()
}

func checkWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	probe := filepath.Join(dir, ".sscs-check")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("cannot write: %w", err)
	}
	return os.Remove(probe)
}

// checkPortal confirms the login page answers over plain HTTP before a run
// spends time launching a browser. A 4xx answer still proves the host is
// up, so it degrades to a warning instead of failing the check.
func checkPortal(loginURL string) (string, error) {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	resp, err := client.R().Get(loginURL)
	if err != nil {
		return "", err
	}
	if resp.StatusCode() >= 500 {
		return "", fmt.Errorf("portal returned %s", resp.Status())
	}
	if resp.StatusCode() >= 400 {
		return fmt.Sprintf("portal answered %s", resp.Status()), nil
	}
	return "", nil
}
