package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/google/uuid"
)

// SenderRules returns every sender rule in registration order.
func (s *SQLiteStorage) SenderRules(ctx context.Context) ([]model.SenderRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, comparison, status, created_at
		FROM senders
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query senders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.SenderRule
	for rows.Next() {
		var rule model.SenderRule
		if err := rows.Scan(&rule.ID, &rule.Name, &rule.Comparison, &rule.Status, &rule.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sender: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// AddSender registers a new sender rule. Missing ID, comparison and creation
// time are filled in.
func (s *SQLiteStorage) AddSender(ctx context.Context, rule *model.SenderRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if rule != nil && rule.Status == "" {
		rule.Status = model.SenderUnprocessed
	}
	if err := validateSender(rule); err != nil {
		return err
	}

	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.Comparison == "" {
		rule.Comparison = model.ComparisonContains
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO senders (id, name, comparison, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, rule.ID, rule.Name, rule.Comparison, rule.Status, rule.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add sender %q: %w", rule.Name, err)
	}

	return nil
}

// UpdateSenderStatus changes the trust status of a sender rule.
func (s *SQLiteStorage) UpdateSenderStatus(ctx context.Context, id string, status model.SenderStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if !status.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	result, err := s.db.ExecContext(ctx, `UPDATE senders SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update sender: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("sender %s: %w", id, common.ErrNotFound)
	}

	return nil
}
