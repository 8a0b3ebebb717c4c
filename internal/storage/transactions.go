package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

var transactionColumns = []string{
	"id", "timestamp", "amount", "balance", "account", "merchant", "date", "type",
	"kind", "category", "message", "reason", "ignored", "email_checked", "multiple_mails",
}

// GetTransaction returns the account's transaction with the given ID, or
// common.ErrNotFound.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, accountID, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	sqlStr, args, err := s.builder.
		Select(transactionColumns...).
		From("transactions").
		Where(sq.Eq{"account_id": accountID, "id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction query: %w", err)
	}

	txn, err := scanTransaction(s.db.QueryRowContext(ctx, sqlStr, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return txn, nil
}

// ListTransactions returns the account's transactions at or after since, newest first.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, accountID string, since time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return nil, err
	}

	query := s.builder.
		Select(transactionColumns...).
		From("transactions").
		Where(sq.Eq{"account_id": accountID}).
		OrderBy("timestamp DESC", "id")
	if !since.IsZero() {
		query = query.Where(sq.GtOrEq{"timestamp": since.Unix()})
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, *txn)
	}

	return txns, rows.Err()
}

// UpsertTransaction writes txn under id, replacing any stored version.
func (s *SQLiteStorage) UpsertTransaction(ctx context.Context, accountID, id string, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	if txn.ID != id {
		return fmt.Errorf("%w: id %q does not match transaction %q", ErrInvalidTransaction, id, txn.ID)
	}

	return s.writeTransaction(ctx, s.db, accountID, txn, `
		INSERT INTO transactions (account_id, id, timestamp, amount, balance, account, merchant, date, type,
			kind, category, message, reason, ignored, email_checked, multiple_mails)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id, id) DO UPDATE SET
			timestamp = excluded.timestamp,
			amount = excluded.amount,
			balance = excluded.balance,
			account = excluded.account,
			merchant = excluded.merchant,
			date = excluded.date,
			type = excluded.type,
			kind = excluded.kind,
			category = excluded.category,
			message = excluded.message,
			reason = excluded.reason,
			ignored = excluded.ignored,
			email_checked = excluded.email_checked,
			multiple_mails = excluded.multiple_mails
	`)
}

// BatchInsertTransactions inserts new transactions in one database transaction.
// Rows that already exist are left unchanged.
func (s *SQLiteStorage) BatchInsertTransactions(ctx context.Context, accountID string, txns []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return err
	}
	for i := range txns {
		if err := validateTransaction(&txns[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	if len(txns) == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for i := range txns {
			if err := s.writeTransaction(ctx, tx, accountID, &txns[i], `
				INSERT OR IGNORE INTO transactions (account_id, id, timestamp, amount, balance, account, merchant,
					date, type, kind, category, message, reason, ignored, email_checked, multiple_mails)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStorage) writeTransaction(ctx context.Context, q queryable, accountID string, txn *model.Transaction, query string) error {
	var balance sql.NullString
	if txn.Balance.Valid {
		balance = sql.NullString{String: txn.Balance.Decimal.String(), Valid: true}
	}

	_, err := q.ExecContext(ctx, query,
		accountID,
		txn.ID,
		txn.Timestamp.Unix(),
		txn.Amount.String(),
		balance,
		txn.Account,
		txn.Merchant,
		txn.Date,
		txn.Type,
		string(txn.Kind),
		txn.Category,
		txn.Message,
		txn.Reason,
		txn.Ignore,
		txn.EmailChecked,
		txn.MultipleMails,
	)
	if err != nil {
		return fmt.Errorf("failed to write transaction %s: %w", txn.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var ts int64
	var amount string
	var balance sql.NullString

	err := row.Scan(
		&txn.ID,
		&ts,
		&amount,
		&balance,
		&txn.Account,
		&txn.Merchant,
		&txn.Date,
		&txn.Type,
		&txn.Kind,
		&txn.Category,
		&txn.Message,
		&txn.Reason,
		&txn.Ignore,
		&txn.EmailChecked,
		&txn.MultipleMails,
	)
	if err != nil {
		return nil, err
	}

	txn.Timestamp = time.Unix(ts, 0).UTC()
	if txn.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("corrupt amount %q for %s: %w", amount, txn.ID, err)
	}
	if balance.Valid {
		b, err := decimal.NewFromString(balance.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt balance %q for %s: %w", balance.String, txn.ID, err)
		}
		txn.Balance = decimal.NewNullDecimal(b)
	}

	return &txn, nil
}
