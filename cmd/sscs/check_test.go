package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajveerkhosa/sscs/internal/config"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestCollectChecksReportsEveryFailure(t *testing.T) {
	resetViper(t)
	t.Setenv(config.UsernameEnv, "")
	t.Setenv(config.PasswordEnv, "")

	// Missing credentials sink the config load, but the path and portal
	// checks must still run and report their own problems.
	viper.Set("tracker.workbook", filepath.Join(t.TempDir(), "missing.xlsx"))
	viper.Set("tracker.backup_dir", filepath.Join(t.TempDir(), "backups"))

	results := collectChecks()
	require.Len(t, results, 5, "every check runs even when config fails")

	byName := map[string]checkResult{}
	for _, r := range results {
		byName[r.name] = r
	}

	assert.Error(t, byName["credentials in environment"].err)
	assert.Error(t, byName["configuration loads and validates"].err)
	assert.Error(t, byName["tracker workbook writable"].err)
	assert.NoError(t, byName["backup directory writable"].err)
	assert.Error(t, byName["portal reachable"].err, "unconfigured login URL is reported")
}

func TestCollectChecksAllPass(t *testing.T) {
	resetViper(t)
	t.Setenv(config.UsernameEnv, "user")
	t.Setenv(config.PasswordEnv, "pass")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dir := t.TempDir()
	workbook := filepath.Join(dir, "tracker.xlsx")
	require.NoError(t, os.WriteFile(workbook, []byte("stub"), 0o644))

	viper.Set("portal.base_url", srv.URL)
	viper.Set("portal.login_url", srv.URL+"/login")
	viper.Set("portal.site_code", "1001")
	viper.Set("fuel.diesel_prefixes", []string{"050"})
	viper.Set("tracker.workbook", workbook)
	viper.Set("tracker.backup_dir", filepath.Join(dir, "backups"))
	viper.Set("tracker.sheets", []map[string]any{
		{"name": "Fuel Gallons", "columns": map[string]string{"diesel": "B", "total": "E"}},
	})

	for _, r := range collectChecks() {
		assert.NoError(t, r.err, r.name)
		assert.Empty(t, r.warn, r.name)
	}
}

func TestCheckPortalStatusHandling(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantWarn bool
		wantErr  bool
	}{
		{"ok", http.StatusOK, false, false},
		{"client error warns", http.StatusForbidden, true, false},
		{"server error fails", http.StatusBadGateway, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			warn, err := checkPortal(srv.URL)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantWarn {
				assert.NotEmpty(t, warn)
			} else {
				assert.Empty(t, warn)
			}
		})
	}
}

func TestCheckWritableFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "tracker.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("stub"), 0o644))
	assert.NoError(t, checkWritableFile(path))

	assert.Error(t, checkWritableFile(filepath.Join(dir, "absent.xlsx")))
	assert.Error(t, checkWritableFile(dir), "a directory is not a workbook")
}

func TestCheckWritableDir(t *testing.T) {
	dir := t.TempDir()

	// Creates the directory when absent, leaves no probe file behind.
	target := filepath.Join(dir, "backups")
	require.NoError(t, checkWritableDir(target))

	entries, err := os.ReadDir(target)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
