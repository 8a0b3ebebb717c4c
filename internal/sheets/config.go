// Package sheets exports the ledger to a Google Sheets spreadsheet.
package sheets

import (
	"errors"
	"strings"
	"time"

	"github.com/Veraticus/smsledger/internal/common"
)

// Config controls where and how the ledger is written.
type Config struct {
	SpreadsheetID    string
	SpreadsheetName  string
	SheetTitle       string
	TimeZone         string
	CurrencyPattern  string
	Retry            common.RetryOptions
	BatchSize        int
	EnableFormatting bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SpreadsheetName:  "SMS Ledger",
		SheetTitle:       "Ledger",
		TimeZone:         "Asia/Kolkata",
		CurrencyPattern:  "₹#,##0.00",
		BatchSize:        1000,
		EnableFormatting: true,
		Retry: common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.SpreadsheetID == "" && strings.TrimSpace(c.SpreadsheetName) == "" {
		return errors.New("either a spreadsheet ID or a spreadsheet name is required")
	}
	if strings.TrimSpace(c.SheetTitle) == "" {
		return errors.New("sheet title is required")
	}
	if c.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}
	if c.Retry.MaxAttempts < 0 {
		return errors.New("retry attempts cannot be negative")
	}
	if c.Retry.InitialDelay < 0 {
		return errors.New("retry delay cannot be negative")
	}
	return nil
}
