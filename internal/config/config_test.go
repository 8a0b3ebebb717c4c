package config

import (
	"testing"
	"time"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("GMAIL_CREDENTIALS_PATH", "")

	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "/home/tester/.local/share/smsledger/ledger.db", cfg.Database)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "noreply@phonepe.com", cfg.Verify.FromAddress)
	assert.Equal(t, 120*time.Second, cfg.Verify.Window)
	assert.Equal(t, []string{"upi"}, cfg.Verify.PaymentTypes)
	assert.Equal(t, "me", cfg.Gmail.User)
	assert.False(t, cfg.Gmail.Enabled())
	assert.Equal(t, "default", cfg.Account)
	assert.Equal(t, "@every 15m", cfg.Watch.Schedule)
	assert.Zero(t, cfg.Watch.Lookback)
	assert.False(t, cfg.Sheets.Enabled)
	assert.Equal(t, "SMS Ledger", cfg.Sheets.SpreadsheetName)
	assert.Equal(t, "Ledger", cfg.Sheets.Tab)
}

func TestLoadGmailFromEnvironment(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("GMAIL_CREDENTIALS_PATH", "~/creds.json")

	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/home/tester/creds.json", cfg.Gmail.CredentialsPath)
	assert.True(t, cfg.Gmail.Enabled())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		want  error
	}{
		{name: "zero workers", key: "workers.max", value: 0, want: common.ErrInvalidConfig},
		{name: "negative ttl", key: "cache.ttl", value: -time.Second, want: common.ErrInvalidConfig},
		{name: "empty window", key: "verify.window", value: time.Duration(0), want: common.ErrInvalidConfig},
		{name: "empty database", key: "database.path", value: "", want: common.ErrMissingConfig},
		{name: "empty account", key: "account", value: " ", want: common.ErrMissingConfig},
		{name: "sheets without tab", key: "sheets.tab", value: "", want: common.ErrMissingConfig},
		{name: "negative lookback", key: "watch.lookback", value: -time.Hour, want: common.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set("sheets.enabled", true)
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("LEDGER_DIR", "/data")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, "/home/tester", ExpandPath("~"))
	assert.Equal(t, "/home/tester/ledger.db", ExpandPath("~/ledger.db"))
	assert.Equal(t, "/data/ledger.db", ExpandPath("$LEDGER_DIR/ledger.db"))
	assert.Equal(t, ":memory:", ExpandPath(":memory:"))
}
