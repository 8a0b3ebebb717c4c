package main

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/smsledger/internal/config"
	"github.com/Veraticus/smsledger/internal/deferred"
	"github.com/Veraticus/smsledger/internal/engine"
	"github.com/Veraticus/smsledger/internal/mail"
	"github.com/Veraticus/smsledger/internal/pattern"
	"github.com/Veraticus/smsledger/internal/sender"
	"github.com/Veraticus/smsledger/internal/service"
	"github.com/Veraticus/smsledger/internal/sheets"
	"github.com/Veraticus/smsledger/internal/storage"
)

// loadConfig reads and validates the merged flag, env and file configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// initStorage opens the database, runs migrations and wraps it with the
// read-mostly caches.
func initStorage(ctx context.Context, cfg *config.Config) (*storage.CachedStorage, error) {
	if cfg.Database != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return storage.NewCachedStorage(store, cfg.CacheTTL), nil
}

// openLedger loads configuration and storage together.
func openLedger(ctx context.Context) (*config.Config, *storage.CachedStorage, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

// newNotificationSearch builds the Gmail client once per process. It returns
// nil when Gmail is not configured or the token is missing, which disables
// cross-verification.
func newNotificationSearch(ctx context.Context, cfg *config.Config) service.NotificationSearch {
	if !cfg.Gmail.Enabled() {
		slog.Debug("Gmail not configured, email cross-verification disabled")
		return nil
	}

	oauthCfg, err := mail.LoadOAuthConfig(cfg.Gmail.CredentialsPath, googleScopes(cfg)...)
	if err != nil {
		slog.Warn("Email cross-verification disabled", "error", err)
		return nil
	}

	svc, err := mail.NewGmailService(ctx, oauthCfg, cfg.Gmail.TokenPath)
	if err != nil {
		slog.Warn("Email cross-verification disabled", "error", err)
		return nil
	}

	return mail.NewGmailSearch(svc, cfg.Gmail.User)
}

// googleScopes lists the OAuth2 scopes requested beyond read-only Gmail.
func googleScopes(cfg *config.Config) []string {
	if cfg.Sheets.Enabled {
		return []string{sheets.Scope}
	}
	return nil
}

// newClassifier wires the classification pipeline over store. Reconciliation
// is submitted to executor.
func newClassifier(ctx context.Context, cfg *config.Config, store *storage.CachedStorage, executor deferred.Executor) *engine.Classifier {
	verifier := mail.NewVerifier(newNotificationSearch(ctx, cfg), store,
		mail.WithFromAddress(cfg.Verify.FromAddress),
		mail.WithWindow(cfg.Verify.Window),
		mail.WithPaymentTypes(cfg.Verify.PaymentTypes...))

	resolver := engine.NewCategoryResolver(store, verifier)
	reconciler := engine.NewReconciler(store, resolver)

	return engine.NewClassifier(
		sender.NewGate(store),
		pattern.NewMatcher(store),
		store,
		reconciler,
		executor,
	)
}

// parseSince parses a YYYY-MM-DD date. An empty value means the start of the
// current month.
func parseSince(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return startOfMonth(now), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, value, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", value, err)
	}
	return t, nil
}

func startOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
