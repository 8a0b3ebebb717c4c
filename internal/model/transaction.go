package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind distinguishes money leaving from money arriving.
type TransactionKind string

// Transaction kinds.
const (
	KindDebit  TransactionKind = "debit"
	KindCredit TransactionKind = "credit"
)

// Transaction is a ledger entry derived from a matched message. Its ID is the
// source message ID, so re-parsing the same message yields the same identity.
type Transaction struct {
	Timestamp     time.Time
	Amount        decimal.Decimal
	Balance       decimal.NullDecimal
	ID            string
	Account       string
	Merchant      string
	Date          string
	Type          string
	Kind          TransactionKind
	Category      string
	Message       string
	Reason        string
	Ignore        bool
	EmailChecked  bool
	MultipleMails bool
}

// Equal reports whether every field of t matches other.
func (t Transaction) Equal(other Transaction) bool {
	return t.ID == other.ID &&
		t.Timestamp.Equal(other.Timestamp) &&
		t.Amount.Equal(other.Amount) &&
		t.Balance.Valid == other.Balance.Valid &&
		(!t.Balance.Valid || t.Balance.Decimal.Equal(other.Balance.Decimal)) &&
		t.Account == other.Account &&
		t.Merchant == other.Merchant &&
		t.Date == other.Date &&
		t.Type == other.Type &&
		t.Kind == other.Kind &&
		t.Category == other.Category &&
		t.Message == other.Message &&
		t.Reason == other.Reason &&
		t.Ignore == other.Ignore &&
		t.EmailChecked == other.EmailChecked &&
		t.MultipleMails == other.MultipleMails
}

// IsUncategorized reports whether the transaction still lacks a real category.
func (t Transaction) IsUncategorized() bool {
	return t.Category == "" || t.Category == Uncategorized
}

// ParseKind converts a captured kind to a TransactionKind. An empty value means debit.
func ParseKind(s string) (TransactionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "debit", "debited", "dr":
		return KindDebit, nil
	case "credit", "credited", "cr":
		return KindCredit, nil
	}
	return "", fmt.Errorf("unknown transaction kind %q", s)
}
