package storage

import (
	"context"
	"fmt"
	"time"
)

// MerchantCategories returns the merchant to category table.
func (s *SQLiteStorage) MerchantCategories(ctx context.Context) (map[string]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name, category FROM merchants`)
	if err != nil {
		return nil, fmt.Errorf("failed to query merchants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	merchants := make(map[string]string)
	for rows.Next() {
		var name, category string
		if err := rows.Scan(&name, &category); err != nil {
			return nil, fmt.Errorf("failed to scan merchant: %w", err)
		}
		merchants[name] = category
	}

	return merchants, rows.Err()
}

// SetMerchantCategory records the category for a merchant, replacing any previous one.
func (s *SQLiteStorage) SetMerchantCategory(ctx context.Context, merchant, category string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(merchant, "merchant"); err != nil {
		return err
	}
	if err := validateString(category, "category"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO merchants (name, category, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			category = excluded.category,
			updated_at = excluded.updated_at
	`, merchant, category, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save merchant category: %w", err)
	}

	return nil
}
