// Package engine classifies bank notification messages and reconciles the
// transactions they describe into the ledger.
package engine

import (
	"context"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/pattern"
)

// TrustGate decides whether a sender identifier may produce transactions.
type TrustGate interface {
	IsTrusted(ctx context.Context, senderID string) bool
}

// RuleMatcher finds the extraction rule that fires for a message.
type RuleMatcher interface {
	Match(ctx context.Context, senderID, body string) (pattern.Result, error)
}

// Verifier enriches a transaction from a secondary notification source. It
// must not return errors; failures leave the transaction unchanged.
type Verifier interface {
	Verify(ctx context.Context, txn *model.Transaction)
}

// TransactionReconciler merges transaction candidates into stored state.
type TransactionReconciler interface {
	Reconcile(ctx context.Context, accountID string, candidates []model.Transaction) ReconcileStats
}
