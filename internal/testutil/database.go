// Package testutil provides test helpers backed by a real SQLite database.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/storage"
)

// SetupTestDB creates a migrated database in the test's temporary directory
// and wraps it with caches that never expire. The database is closed when the
// test finishes.
func SetupTestDB(t *testing.T) *storage.CachedStorage {
	t.Helper()

	sqlite, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })

	if err := sqlite.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return storage.NewCachedStorage(sqlite, 0)
}

// ApproveSenders registers each name as an approved sender.
func ApproveSenders(t *testing.T, store *storage.CachedStorage, names ...string) {
	t.Helper()
	for _, name := range names {
		rule := &model.SenderRule{Name: name, Status: model.SenderApproved}
		if err := store.AddSender(context.Background(), rule); err != nil {
			t.Fatalf("failed to add sender %q: %v", name, err)
		}
	}
}

// AddRules registers extraction rules in order.
func AddRules(t *testing.T, store *storage.CachedStorage, rules ...model.ExtractionRule) {
	t.Helper()
	for i := range rules {
		if err := store.UpsertExtractionRule(context.Background(), &rules[i]); err != nil {
			t.Fatalf("failed to add rule %q: %v", rules[i].Pattern, err)
		}
	}
}
