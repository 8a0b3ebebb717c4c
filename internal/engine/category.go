package engine

import (
	"context"
	"log/slog"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
)

// CategoryResolver assigns categories from the merchant table and falls back
// to cross-verification for transactions that are still uncategorized.
type CategoryResolver struct {
	merchants service.MerchantCategoryStore
	verifier  Verifier
}

// NewCategoryResolver creates a resolver. verifier may be nil.
func NewCategoryResolver(merchants service.MerchantCategoryStore, verifier Verifier) *CategoryResolver {
	return &CategoryResolver{merchants: merchants, verifier: verifier}
}

// Resolve updates txn in place. existing is the stored transaction with the
// same identity, or nil. A real category is never replaced by uncategorized.
func (r *CategoryResolver) Resolve(ctx context.Context, txn *model.Transaction, existing *model.Transaction) {
	merchants, err := r.merchants.MerchantCategories(ctx)
	if err != nil {
		slog.Error("Failed to load merchant categories", "transaction_id", txn.ID, "error", err)
	} else if category, ok := merchants[txn.Merchant]; ok && category != "" && category != model.Uncategorized {
		txn.Category = category
	}

	if existing != nil && existing.EmailChecked {
		txn.EmailChecked = true
	}

	if r.verifier != nil && !txn.EmailChecked && txn.IsUncategorized() {
		r.verifier.Verify(ctx, txn)
	}

	if !txn.IsUncategorized() {
		slog.Debug("Resolved category", "transaction_id", txn.ID, "merchant", txn.Merchant, "category", txn.Category)
	}
}
