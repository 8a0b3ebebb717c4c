package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/storage"
	"github.com/Veraticus/smsledger/internal/testutil"
)

const testAccount = "owner@example.com"

const iciciBody = "ICICI Bank Acct XX1234 debited for Rs 500.00 on 01-Jan-24; AMAZON credited. UPI:12345. Call 123 for dispute. SMS BLOCK XYZ to 456"

const iciciPattern = `Acct (?P<account_no>\S+) debited for Rs (?P<amount>[\d,.]+) on (?P<date>\S+?);\s*(?P<merchant>.+?) credited`

var testTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// countingStore records transaction writes made through it.
type countingStore struct {
	*storage.CachedStorage
	mu      sync.Mutex
	upserts int
	inserts int
}

func (c *countingStore) UpsertTransaction(ctx context.Context, accountID, id string, txn *model.Transaction) error {
	c.mu.Lock()
	c.upserts++
	c.mu.Unlock()
	return c.CachedStorage.UpsertTransaction(ctx, accountID, id, txn)
}

func (c *countingStore) BatchInsertTransactions(ctx context.Context, accountID string, txns []model.Transaction) error {
	c.mu.Lock()
	c.inserts += len(txns)
	c.mu.Unlock()
	return c.CachedStorage.BatchInsertTransactions(ctx, accountID, txns)
}

func (c *countingStore) writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.upserts + c.inserts
}

func newTestStore(t *testing.T) *countingStore {
	t.Helper()
	return &countingStore{CachedStorage: testutil.SetupTestDB(t)}
}

func newMessage(id, sender, body string) model.Message {
	return model.Message{
		ID:        id,
		Sender:    sender,
		Body:      body,
		Timestamp: testTime,
		Status:    model.MessageUnprocessed,
	}
}

func candidate(id string) model.Transaction {
	return model.Transaction{
		ID:        id,
		Timestamp: testTime,
		Amount:    decimal.NewFromInt(500),
		Account:   "XX1234",
		Merchant:  "AMAZON",
		Date:      "01-Jan-24",
		Type:      "upi",
		Kind:      model.KindDebit,
		Category:  model.Uncategorized,
	}
}

type recordingVerifier struct {
	apply func(*model.Transaction)
	calls int
}

func (r *recordingVerifier) Verify(_ context.Context, txn *model.Transaction) {
	r.calls++
	if r.apply != nil {
		r.apply(txn)
	}
}
