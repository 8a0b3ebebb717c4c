package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
)

// ReconcileStats counts what happened to each candidate in one reconciliation.
type ReconcileStats struct {
	Inserted int
	Updated  int
	Skipped  int
	Failed   int
}

// Reconciler merges transaction candidates with stored transactions of the
// same identity.
type Reconciler struct {
	store    service.TransactionStore
	resolver *CategoryResolver
}

// NewReconciler creates a reconciler writing to store.
func NewReconciler(store service.TransactionStore, resolver *CategoryResolver) *Reconciler {
	return &Reconciler{store: store, resolver: resolver}
}

// Reconcile processes every candidate. Ignored and already categorized stored
// transactions are left alone. Uncategorized ones are re-resolved and written
// only if something changed. New transactions are inserted in one batch.
// Failures are logged per candidate and do not stop the batch.
func (r *Reconciler) Reconcile(ctx context.Context, accountID string, candidates []model.Transaction) ReconcileStats {
	var stats ReconcileStats
	if len(candidates) == 0 {
		return stats
	}

	logger := slog.With("account", accountID)
	var inserts []model.Transaction

	for i := range candidates {
		txn := candidates[i]
		txn.Timestamp = txn.Timestamp.Truncate(time.Second)

		existing, err := r.store.GetTransaction(ctx, accountID, txn.ID)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			logger.Error("Failed to load existing transaction", "transaction_id", txn.ID, "error", err)
			stats.Failed++
			continue
		}

		if existing == nil {
			if txn.IsUncategorized() {
				r.resolver.Resolve(ctx, &txn, nil)
			}
			inserts = append(inserts, txn)
			continue
		}

		if existing.Ignore || !existing.IsUncategorized() {
			stats.Skipped++
			continue
		}

		r.resolver.Resolve(ctx, &txn, existing)
		if txn.Reason == "" {
			txn.Reason = existing.Reason
		}

		if txn.Equal(*existing) {
			stats.Skipped++
			continue
		}

		logger.Info("Updating transaction", "transaction_id", txn.ID, "category", txn.Category)
		if err := r.store.UpsertTransaction(ctx, accountID, txn.ID, &txn); err != nil {
			logger.Error("Failed to update transaction", "transaction_id", txn.ID, "error", err)
			stats.Failed++
			continue
		}
		stats.Updated++
	}

	if len(inserts) > 0 {
		if err := r.store.BatchInsertTransactions(ctx, accountID, inserts); err != nil {
			logger.Error("Failed to insert transactions", "count", len(inserts), "error", err)
			stats.Failed += len(inserts)
		} else {
			stats.Inserted = len(inserts)
		}
	}

	logger.Info("Reconciled transactions",
		"inserted", stats.Inserted,
		"updated", stats.Updated,
		"skipped", stats.Skipped,
		"failed", stats.Failed)
	return stats
}
