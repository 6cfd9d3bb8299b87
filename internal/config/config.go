// Package config builds the immutable runtime configuration.
//
// Configuration is assembled once at startup from the viper-managed config
// file plus credential environment variables, validated, and then passed by
// value into each component constructor. No component reads viper or the
// environment directly.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/rajveerkhosa/sscs/internal/common"
	"github.com/rajveerkhosa/sscs/internal/model"
)

// Environment variables holding the portal credentials. Their values are
// never logged.
const (
	UsernameEnv = "SSCS_PORTAL_USERNAME"
	PasswordEnv = "SSCS_PORTAL_PASSWORD"
)

// Config is the full runtime configuration for one run.
type Config struct {
	Portal  Portal
	Fuel    Fuel
	Tracker Tracker
}

// Portal configures the browser-automation session.
type Portal struct {
	BaseURL        string
	LoginURL       string
	SiteCode       string
	Department     string
	QuantityHeader string
	Username       string
	Password       string
	LoginTimeout   time.Duration
	TableTimeout   time.Duration
	FetchAttempts  int
	FetchDelay     time.Duration
}

// Fuel maps product-line prefixes onto fuel categories.
type Fuel struct {
	DieselPrefixes  []string
	RegularPrefixes []string
	DEFPrefixes     []string
}

// Tracker configures the workbook update.
type Tracker struct {
	Workbook      string
	BackupDir     string
	RollingWindow int
	Sheets        []Sheet
}

// Sheet is the per-sheet layout: where the week label lives, which label
// marks the anchor row, and which column carries each metric.
type Sheet struct {
	Name        string
	Enabled     bool
	WeekColumn  string
	AnchorLabel string
	Columns     map[model.Category]string
	TotalColumn string
}

// rawSheet mirrors the YAML shape of one tracker sheet entry.
type rawSheet struct {
	Name        string            `mapstructure:"name"`
	Enabled     *bool             `mapstructure:"enabled"`
	WeekColumn  string            `mapstructure:"week_column"`
	AnchorLabel string            `mapstructure:"anchor_label"`
	Columns     map[string]string `mapstructure:"columns"`
}

func (rs rawSheet) sheet() Sheet {
	s := Sheet{
		Name:        rs.Name,
		Enabled:     rs.Enabled == nil || *rs.Enabled,
		WeekColumn:  rs.WeekColumn,
		AnchorLabel: rs.AnchorLabel,
		TotalColumn: rs.Columns["total"],
		Columns:     map[model.Category]string{},
	}
	for _, cat := range []model.Category{model.CategoryDiesel, model.CategoryRegular, model.CategoryDEF} {
		if col := rs.Columns[string(cat)]; col != "" {
			s.Columns[cat] = col
		}
	}
	return s
}

// Load builds a Config from viper plus the credential environment
// variables, applies defaults and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Portal: Portal{
			BaseURL:        viper.GetString("portal.base_url"),
			LoginURL:       viper.GetString("portal.login_url"),
			SiteCode:       viper.GetString("portal.site_code"),
			Department:     viper.GetString("portal.department"),
			QuantityHeader: viper.GetString("portal.quantity_header"),
			Username:       os.Getenv(UsernameEnv),
			Password:       os.Getenv(PasswordEnv),
			LoginTimeout:   viper.GetDuration("portal.login_timeout"),
			TableTimeout:   viper.GetDuration("portal.table_timeout"),
			FetchAttempts:  viper.GetInt("portal.fetch_attempts"),
			FetchDelay:     viper.GetDuration("portal.fetch_delay"),
		},
		Fuel: Fuel{
			DieselPrefixes:  viper.GetStringSlice("fuel.diesel_prefixes"),
			RegularPrefixes: viper.GetStringSlice("fuel.regular_prefixes"),
			DEFPrefixes:     viper.GetStringSlice("fuel.def_prefixes"),
		},
		Tracker: Tracker{
			Workbook:      viper.GetString("tracker.workbook"),
			BackupDir:     viper.GetString("tracker.backup_dir"),
			RollingWindow: viper.GetInt("tracker.rolling_window"),
		},
	}

	var rawSheets []rawSheet
	if err := viper.UnmarshalKey("tracker.sheets", &rawSheets); err != nil {
		return Config{}, fmt.Errorf("%w: tracker.sheets: %v", common.ErrInvalidConfig, err)
	}
	for _, rs := range rawSheets {
		cfg.Tracker.Sheets = append(cfg.Tracker.Sheets, rs.sheet())
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Portal.QuantityHeader == "" {
		c.Portal.QuantityHeader = "Qty"
	}
	if c.Portal.LoginTimeout <= 0 {
		c.Portal.LoginTimeout = 30 * time.Second
	}
	if c.Portal.TableTimeout <= 0 {
		c.Portal.TableTimeout = 45 * time.Second
	}
	if c.Portal.FetchAttempts <= 0 {
		c.Portal.FetchAttempts = 3
	}
	if c.Portal.FetchDelay <= 0 {
		c.Portal.FetchDelay = 3 * time.Second
	}
	if c.Tracker.RollingWindow <= 0 {
		c.Tracker.RollingWindow = 52
	}
	for i := range c.Tracker.Sheets {
		if c.Tracker.Sheets[i].WeekColumn == "" {
			c.Tracker.Sheets[i].WeekColumn = "A"
		}
		if c.Tracker.Sheets[i].AnchorLabel == "" {
			c.Tracker.Sheets[i].AnchorLabel = "Total"
		}
	}
}

// Validate checks the configuration for missing or contradictory values.
func (c Config) Validate() error {
	if c.Portal.BaseURL == "" {
		return fmt.Errorf("%w: portal.base_url", common.ErrMissingConfig)
	}
	if c.Portal.LoginURL == "" {
		return fmt.Errorf("%w: portal.login_url", common.ErrMissingConfig)
	}
	if c.Portal.SiteCode == "" {
		return fmt.Errorf("%w: portal.site_code", common.ErrMissingConfig)
	}
	if c.Portal.Username == "" || c.Portal.Password == "" {
		return fmt.Errorf("%w: set %s and %s", common.ErrMissingConfig, UsernameEnv, PasswordEnv)
	}
	if c.Tracker.Workbook == "" {
		return fmt.Errorf("%w: tracker.workbook", common.ErrMissingConfig)
	}
	if c.Tracker.BackupDir == "" {
		return fmt.Errorf("%w: tracker.backup_dir", common.ErrMissingConfig)
	}
	if len(c.Tracker.Sheets) == 0 {
		return fmt.Errorf("%w: tracker.sheets", common.ErrMissingConfig)
	}

	if err := c.Fuel.Validate(); err != nil {
		return err
	}

	for _, s := range c.Tracker.Sheets {
		if s.Name == "" {
			return fmt.Errorf("%w: tracker sheet without a name", common.ErrInvalidConfig)
		}
		if len(s.Columns) == 0 && s.TotalColumn == "" {
			return fmt.Errorf("%w: sheet %q maps no metric columns", common.ErrInvalidConfig, s.Name)
		}
	}

	return nil
}

// Validate ensures the prefix lists partition with no overlap and that at
// least one prefix is tracked.
func (f Fuel) Validate() error {
	seen := map[string]model.Category{}
	total := 0

	check := func(prefixes []string, cat model.Category) error {
		for _, p := range prefixes {
			if other, dup := seen[p]; dup {
				return fmt.Errorf("%w: prefix %q mapped to both %s and %s",
					common.ErrInvalidConfig, p, other, cat)
			}
			seen[p] = cat
			total++
		}
		return nil
	}

	if err := check(f.DieselPrefixes, model.CategoryDiesel); err != nil {
		return err
	}
	if err := check(f.RegularPrefixes, model.CategoryRegular); err != nil {
		return err
	}
	if err := check(f.DEFPrefixes, model.CategoryDEF); err != nil {
		return err
	}

	if total == 0 {
		return fmt.Errorf("%w: no fuel prefixes configured", common.ErrMissingConfig)
	}

	return nil
}

// CategoryFor returns the category a prefix belongs to.
func (f Fuel) CategoryFor(prefix string) (model.Category, bool) {
	for _, p := range f.DieselPrefixes {
		if p == prefix {
			return model.CategoryDiesel, true
		}
	}
	for _, p := range f.RegularPrefixes {
		if p == prefix {
			return model.CategoryRegular, true
		}
	}
	for _, p := range f.DEFPrefixes {
		if p == prefix {
			return model.CategoryDEF, true
		}
	}
	return "", false
}

// AllPrefixes returns every tracked prefix in fetch order: diesel first,
// then regular, then DEF.
func (f Fuel) AllPrefixes() []string {
	out := make([]string, 0, len(f.DieselPrefixes)+len(f.RegularPrefixes)+len(f.DEFPrefixes))
	out = append(out, f.DieselPrefixes...)
	out = append(out, f.RegularPrefixes...)
	out = append(out, f.DEFPrefixes...)
	return out
}
