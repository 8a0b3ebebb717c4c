package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 2

// DefaultCategories are seeded on first migration.
var DefaultCategories = []string{
	"uncategorized",
	"food",
	"groceries",
	"travel",
	"shopping",
	"bills",
	"rent",
	"entertainment",
	"health",
	"transfer",
	"salary",
}

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT UNIQUE NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS senders (
					seq INTEGER PRIMARY KEY AUTOINCREMENT,
					id TEXT UNIQUE NOT NULL,
					name TEXT NOT NULL,
					comparison TEXT NOT NULL DEFAULT 'contains',
					status TEXT NOT NULL DEFAULT 'unprocessed',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS extraction_rules (
					seq INTEGER PRIMARY KEY AUTOINCREMENT,
					id TEXT UNIQUE NOT NULL,
					sender_filter TEXT NOT NULL,
					pattern TEXT NOT NULL,
					outcome TEXT NOT NULL,
					metadata TEXT NOT NULL DEFAULT '{}',
					created_by TEXT NOT NULL DEFAULT '',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS messages (
					account_id TEXT NOT NULL,
					id TEXT NOT NULL,
					sender TEXT NOT NULL DEFAULT '',
					body TEXT NOT NULL,
					timestamp INTEGER NOT NULL,
					status TEXT NOT NULL DEFAULT 'unprocessed',
					matched_rule_id TEXT NOT NULL DEFAULT '',
					PRIMARY KEY (account_id, id)
				)`,
				`CREATE INDEX idx_messages_timestamp ON messages(account_id, timestamp)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					account_id TEXT NOT NULL,
					id TEXT NOT NULL,
					timestamp INTEGER NOT NULL,
					amount TEXT NOT NULL,
					balance TEXT,
					account TEXT NOT NULL DEFAULT '',
					merchant TEXT NOT NULL DEFAULT '',
					date TEXT NOT NULL DEFAULT '',
					type TEXT NOT NULL DEFAULT '',
					kind TEXT NOT NULL DEFAULT 'debit',
					category TEXT NOT NULL DEFAULT 'uncategorized',
					message TEXT NOT NULL DEFAULT '',
					reason TEXT NOT NULL DEFAULT '',
					ignored INTEGER NOT NULL DEFAULT 0,
					email_checked INTEGER NOT NULL DEFAULT 0,
					multiple_mails INTEGER NOT NULL DEFAULT 0,
					PRIMARY KEY (account_id, id)
				)`,
				`CREATE INDEX idx_transactions_timestamp ON transactions(account_id, timestamp)`,
				`CREATE INDEX idx_transactions_merchant ON transactions(merchant)`,

				`CREATE TABLE IF NOT EXISTS merchants (
					name TEXT PRIMARY KEY,
					category TEXT NOT NULL,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Seed default categories",
		Up: func(tx *sql.Tx) error {
			stmt, err := tx.Prepare(`INSERT OR IGNORE INTO categories (name) VALUES (?)`)
			if err != nil {
				return fmt.Errorf("failed to prepare category seed: %w", err)
			}
			defer func() { _ = stmt.Close() }()

			for _, name := range DefaultCategories {
				if _, err := stmt.Exec(name); err != nil {
					return fmt.Errorf("failed to seed category %q: %w", name, err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Debug("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion returns the schema version recorded in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
