package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/google/uuid"
)

// ExtractionRules returns every extraction rule in registration order.
func (s *SQLiteStorage) ExtractionRules(ctx context.Context) ([]model.ExtractionRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender_filter, pattern, outcome, metadata, created_by, created_at
		FROM extraction_rules
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query extraction rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.ExtractionRule
	for rows.Next() {
		var rule model.ExtractionRule
		var metadata string
		if err := rows.Scan(&rule.ID, &rule.SenderFilter, &rule.Pattern, &rule.Outcome,
			&metadata, &rule.CreatedBy, &rule.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan extraction rule: %w", err)
		}
		if err := json.Unmarshal([]byte(metadata), &rule.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for rule %s: %w", rule.ID, err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating extraction rules: %w", err)
	}

	return rules, nil
}

// UpsertExtractionRule creates a rule or replaces an existing one with the same ID.
// Replacing a rule keeps its original registration position.
func (s *SQLiteStorage) UpsertExtractionRule(ctx context.Context, rule *model.ExtractionRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if !rule.Outcome.IsValid() {
		return fmt.Errorf("%w: outcome %q", common.ErrInvalidRule, rule.Outcome)
	}
	if err := validateString(rule.Pattern, "pattern"); err != nil {
		return err
	}

	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}

	metadata := rule.Metadata
	if metadata == nil {
		metadata = model.FieldSet{}
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO extraction_rules (id, sender_filter, pattern, outcome, metadata, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sender_filter = excluded.sender_filter,
			pattern = excluded.pattern,
			outcome = excluded.outcome,
			metadata = excluded.metadata,
			created_by = excluded.created_by
	`, rule.ID, rule.SenderFilter, rule.Pattern, rule.Outcome, string(encoded), rule.CreatedBy, rule.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert extraction rule: %w", err)
	}

	return nil
}

// DeleteExtractionRule removes a rule by ID.
func (s *SQLiteStorage) DeleteExtractionRule(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM extraction_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete extraction rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("extraction rule %s: %w", id, common.ErrNotFound)
	}

	return nil
}
