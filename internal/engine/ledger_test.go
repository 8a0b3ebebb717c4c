package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

func newTestLedger(t *testing.T) (*Ledger, *countingStore) {
	t.Helper()
	store := newTestStore(t)
	require.NoError(t, store.CachedStorage.BatchInsertTransactions(context.Background(), testAccount, []model.Transaction{candidate("t1")}))
	return NewLedger(store, store, store), store
}

func TestLedger_IgnoreAndUnignore(t *testing.T) {
	ledger, store := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Ignore(ctx, testAccount, "t1"))
	txn, err := store.GetTransaction(ctx, testAccount, "t1")
	require.NoError(t, err)
	assert.True(t, txn.Ignore)

	require.NoError(t, ledger.Unignore(ctx, testAccount, "t1"))
	txn, err = store.GetTransaction(ctx, testAccount, "t1")
	require.NoError(t, err)
	assert.False(t, txn.Ignore)
}

func TestLedger_AddReason(t *testing.T) {
	ledger, store := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.AddReason(ctx, testAccount, "t1", "  birthday gift "))
	txn, err := store.GetTransaction(ctx, testAccount, "t1")
	require.NoError(t, err)
	assert.Equal(t, "birthday gift", txn.Reason)
}

func TestLedger_CategorizeRecordsMerchant(t *testing.T) {
	ledger, store := newTestLedger(t)
	ctx := context.Background()

	// Prime the merchant cache so the write must invalidate it.
	_, err := store.MerchantCategories(ctx)
	require.NoError(t, err)

	require.NoError(t, ledger.Categorize(ctx, testAccount, "t1", "Shopping"))

	txn, err := store.GetTransaction(ctx, testAccount, "t1")
	require.NoError(t, err)
	assert.Equal(t, "shopping", txn.Category)

	merchants, err := store.MerchantCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, "shopping", merchants["AMAZON"])
}

func TestLedger_CategorizedMerchantAppliesToNewTransactions(t *testing.T) {
	ledger, store := newTestLedger(t)
	ctx := context.Background()
	require.NoError(t, ledger.Categorize(ctx, testAccount, "t1", "food"))

	reconciler := NewReconciler(store, NewCategoryResolver(store, nil))
	reconciler.Reconcile(ctx, testAccount, []model.Transaction{candidate("t2")})

	txn, err := store.GetTransaction(ctx, testAccount, "t2")
	require.NoError(t, err)
	assert.Equal(t, "food", txn.Category)
}

func TestLedger_Errors(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	for name, action := range map[string]func() error{
		"ignore":     func() error { return ledger.Ignore(ctx, testAccount, "missing") },
		"unignore":   func() error { return ledger.Unignore(ctx, testAccount, "missing") },
		"reason":     func() error { return ledger.AddReason(ctx, testAccount, "missing", "x") },
		"categorize": func() error { return ledger.Categorize(ctx, testAccount, "missing", "food") },
		"category":   func() error { return ledger.Categorize(ctx, testAccount, "t1", "lottery") },
	} {
		t.Run(name, func(t *testing.T) {
			err := action()
			require.Error(t, err)
			assert.True(t, common.IsUserError(err))
			assert.ErrorIs(t, err, common.ErrNotFound)
		})
	}
}
