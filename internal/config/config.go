// Package config loads smsledger settings from flags, environment and file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/spf13/viper"
)

// Config holds the settings needed to run classification and reconciliation.
type Config struct {
	Gmail    GmailConfig
	Sheets   SheetsConfig
	Verify   VerifyConfig
	Watch    WatchConfig
	Database string
	Account  string
	Workers  int
	CacheTTL time.Duration
}

// GmailConfig locates the OAuth2 material used to search notification emails.
type GmailConfig struct {
	CredentialsPath string
	TokenPath       string
	User            string
}

// Enabled reports whether enough configuration exists to build a Gmail client.
func (g GmailConfig) Enabled() bool {
	return g.CredentialsPath != "" && g.TokenPath != ""
}

// SheetsConfig selects the spreadsheet the ledger is exported to. An empty
// SpreadsheetID creates a new spreadsheet on each export.
type SheetsConfig struct {
	SpreadsheetID   string
	SpreadsheetName string
	Tab             string
	Enabled         bool
}

// VerifyConfig controls email cross-verification.
type VerifyConfig struct {
	FromAddress  string
	PaymentTypes []string
	Window       time.Duration
}

// WatchConfig controls periodic classification.
type WatchConfig struct {
	Schedule string
	// Lookback is how far back each run re-reads messages. Zero means from
	// the start of the current month.
	Lookback time.Duration
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("account", "default")
	v.SetDefault("database.path", "$HOME/.local/share/smsledger/ledger.db")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("workers.max", 4)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("verify.from_address", "noreply@phonepe.com")
	v.SetDefault("verify.window", 120*time.Second)
	v.SetDefault("verify.payment_types", []string{"upi"})
	v.SetDefault("gmail.user", "me")
	v.SetDefault("gmail.token_path", "$HOME/.config/smsledger/gmail_token.json")
	v.SetDefault("watch.schedule", "@every 15m")
	v.SetDefault("sheets.spreadsheet_name", "SMS Ledger")
	v.SetDefault("sheets.tab", "Ledger")
}

// Load reads configuration from v, expanding paths and validating values.
// Environment variables without the SMSLEDGER_ prefix are honored for Gmail
// credentials when the config file does not set them.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Database: ExpandPath(v.GetString("database.path")),
		Account:  v.GetString("account"),
		Workers:  v.GetInt("workers.max"),
		CacheTTL: v.GetDuration("cache.ttl"),
		Gmail: GmailConfig{
			CredentialsPath: ExpandPath(v.GetString("gmail.credentials_path")),
			TokenPath:       ExpandPath(v.GetString("gmail.token_path")),
			User:            v.GetString("gmail.user"),
		},
		Sheets: SheetsConfig{
			Enabled:         v.GetBool("sheets.enabled"),
			SpreadsheetID:   v.GetString("sheets.spreadsheet_id"),
			SpreadsheetName: v.GetString("sheets.spreadsheet_name"),
			Tab:             v.GetString("sheets.tab"),
		},
		Verify: VerifyConfig{
			FromAddress:  v.GetString("verify.from_address"),
			Window:       v.GetDuration("verify.window"),
			PaymentTypes: v.GetStringSlice("verify.payment_types"),
		},
		Watch: WatchConfig{
			Schedule: v.GetString("watch.schedule"),
			Lookback: v.GetDuration("watch.lookback"),
		},
	}

	if cfg.Gmail.CredentialsPath == "" {
		cfg.Gmail.CredentialsPath = ExpandPath(os.Getenv("GMAIL_CREDENTIALS_PATH"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required values are present and sane.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers.max must be positive, got %d", common.ErrInvalidConfig, c.Workers)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("%w: cache.ttl must not be negative", common.ErrInvalidConfig)
	}
	if c.Verify.Window <= 0 {
		return fmt.Errorf("%w: verify.window must be positive", common.ErrInvalidConfig)
	}
	if c.Watch.Lookback < 0 {
		return fmt.Errorf("%w: watch.lookback must not be negative", common.ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Account) == "" {
		return fmt.Errorf("%w: account", common.ErrMissingConfig)
	}
	if c.Sheets.Enabled && strings.TrimSpace(c.Sheets.Tab) == "" {
		return fmt.Errorf("%w: sheets.tab", common.ErrMissingConfig)
	}
	if c.Verify.FromAddress == "" {
		return fmt.Errorf("%w: verify.from_address", common.ErrMissingConfig)
	}
	return nil
}

// ExpandPath expands a leading ~ and $VAR references in path.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return os.ExpandEnv(path)
}
