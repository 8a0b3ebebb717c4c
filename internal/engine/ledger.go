package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
)

// Ledger applies manual edits to stored transactions.
type Ledger struct {
	transactions service.TransactionStore
	merchants    service.MerchantCategoryStore
	categories   service.CategoryStore
}

// NewLedger creates a ledger over the given stores.
func NewLedger(transactions service.TransactionStore, merchants service.MerchantCategoryStore, categories service.CategoryStore) *Ledger {
	return &Ledger{
		transactions: transactions,
		merchants:    merchants,
		categories:   categories,
	}
}

// Ignore hides a transaction from future reconciliation.
func (l *Ledger) Ignore(ctx context.Context, accountID, id string) error {
	return l.update(ctx, accountID, id, func(txn *model.Transaction) {
		txn.Ignore = true
	})
}

// Unignore makes a transaction eligible for reconciliation again.
func (l *Ledger) Unignore(ctx context.Context, accountID, id string) error {
	return l.update(ctx, accountID, id, func(txn *model.Transaction) {
		txn.Ignore = false
	})
}

// AddReason attaches a free-text note to a transaction.
func (l *Ledger) AddReason(ctx context.Context, accountID, id, reason string) error {
	return l.update(ctx, accountID, id, func(txn *model.Transaction) {
		txn.Reason = strings.TrimSpace(reason)
	})
}

// Categorize sets a transaction's category and remembers it for the merchant,
// so later transactions from the same merchant are categorized automatically.
func (l *Ledger) Categorize(ctx context.Context, accountID, id, category string) error {
	name, err := l.category(ctx, category)
	if err != nil {
		return err
	}

	var merchant string
	err = l.update(ctx, accountID, id, func(txn *model.Transaction) {
		txn.Category = name
		merchant = txn.Merchant
	})
	if err != nil {
		return err
	}

	if merchant == "" {
		return nil
	}
	if err := l.merchants.SetMerchantCategory(ctx, merchant, name); err != nil {
		return fmt.Errorf("failed to record merchant category: %w", err)
	}
	slog.Info("Recorded merchant category", "merchant", merchant, "category", name)
	return nil
}

func (l *Ledger) category(ctx context.Context, category string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(category))
	categories, err := l.categories.Categories(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load categories: %w", err)
	}
	for _, c := range categories {
		if c.Name == name {
			return name, nil
		}
	}
	return "", common.NewUserError(fmt.Sprintf("unknown category %q", category), common.ErrNotFound)
}

func (l *Ledger) update(ctx context.Context, accountID, id string, mutate func(*model.Transaction)) error {
	txn, err := l.transactions.GetTransaction(ctx, accountID, id)
	if errors.Is(err, common.ErrNotFound) {
		return common.NewUserError(fmt.Sprintf("transaction %s not found", id), err)
	}
	if err != nil {
		return fmt.Errorf("failed to load transaction: %w", err)
	}

	mutate(txn)

	if err := l.transactions.UpsertTransaction(ctx, accountID, txn.ID, txn); err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}
