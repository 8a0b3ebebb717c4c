package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

// Categories returns all categories ordered by name.
func (s *SQLiteStorage) Categories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at
		FROM categories
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// CreateCategory creates a new category. Names are stored lowercase.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO categories (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("category %q: %w", name, common.ErrDuplicateEntry)
	}

	var cat model.Category
	err = s.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM categories WHERE name = ?`, name).
		Scan(&cat.ID, &cat.Name, &cat.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read created category: %w", err)
	}

	return &cat, nil
}
