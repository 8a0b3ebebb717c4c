package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

// MessageFilter narrows message listings.
type MessageFilter struct {
	Since  time.Time
	Status model.MessageStatus
	Sender string
	Limit  uint64
}

// SaveMessages stores newly ingested messages. Messages whose ID already exists
// for the account are left untouched so re-ingestion never resets a status.
func (s *SQLiteStorage) SaveMessages(ctx context.Context, accountID string, messages []model.Message) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return err
	}
	for i := range messages {
		if err := validateMessage(&messages[i]); err != nil {
			return fmt.Errorf("message at index %d: %w", i, err)
		}
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO messages (account_id, id, sender, body, timestamp, status, matched_rule_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, msg := range messages {
			status := msg.Status
			if status == "" {
				status = model.MessageUnprocessed
			}
			if _, err := stmt.ExecContext(ctx, accountID, msg.ID, msg.Sender, msg.Body,
				msg.Timestamp.Unix(), status, msg.MatchedRuleID); err != nil {
				return fmt.Errorf("failed to insert message %s: %w", msg.ID, err)
			}
		}
		return nil
	})
}

// ListMessagesSince returns the account's messages received at or after since,
// oldest first.
func (s *SQLiteStorage) ListMessagesSince(ctx context.Context, accountID string, since time.Time) ([]model.Message, error) {
	return s.ListMessages(ctx, accountID, MessageFilter{Since: since})
}

// ListMessages returns the account's messages matching filter, oldest first.
func (s *SQLiteStorage) ListMessages(ctx context.Context, accountID string, filter MessageFilter) ([]model.Message, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return nil, err
	}

	query := s.builder.
		Select("id", "sender", "body", "timestamp", "status", "matched_rule_id").
		From("messages").
		Where(sq.Eq{"account_id": accountID}).
		OrderBy("timestamp", "id")

	if !filter.Since.IsZero() {
		query = query.Where(sq.GtOrEq{"timestamp": filter.Since.Unix()})
	}
	if filter.Status != "" {
		query = query.Where(sq.Eq{"status": filter.Status})
	}
	if filter.Sender != "" {
		query = query.Where(sq.Like{"LOWER(sender)": "%" + strings.ToLower(filter.Sender) + "%"})
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build message query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []model.Message
	for rows.Next() {
		var msg model.Message
		var ts int64
		if err := rows.Scan(&msg.ID, &msg.Sender, &msg.Body, &ts, &msg.Status, &msg.MatchedRuleID); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Timestamp = time.Unix(ts, 0).UTC()
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// BatchUpdateMessageStatus writes status and matched rule for every message in
// one database transaction.
func (s *SQLiteStorage) BatchUpdateMessageStatus(ctx context.Context, accountID string, messages []model.Message) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, msg := range messages {
			if !msg.Status.IsValid() {
				return fmt.Errorf("message %s: %w: %s", msg.ID, ErrInvalidStatus, msg.Status)
			}

			sqlStr, args, err := s.builder.
				Update("messages").
				Set("status", msg.Status).
				Set("matched_rule_id", msg.MatchedRuleID).
				Where(sq.Eq{"account_id": accountID, "id": msg.ID}).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build status update: %w", err)
			}

			if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
				return fmt.Errorf("failed to update message %s: %w", msg.ID, err)
			}
		}
		return nil
	})
}

// UnprocessMessage resets a message so the next classification run evaluates it afresh.
func (s *SQLiteStorage) UnprocessMessage(ctx context.Context, accountID, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE messages SET status = ?, matched_rule_id = ''
		WHERE account_id = ? AND id = ?
	`, model.MessageUnprocessed, accountID, id)
	if err != nil {
		return fmt.Errorf("failed to unprocess message: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("message %s: %w", id, common.ErrNotFound)
	}

	return nil
}
