package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
)

type fakeSearch struct {
	err           error
	since, until  time.Time
	from          string
	notifications []service.Notification
	calls         int
}

func (f *fakeSearch) Search(_ context.Context, from string, since, until time.Time) ([]service.Notification, error) {
	f.calls++
	f.from, f.since, f.until = from, since, until
	return f.notifications, f.err
}

type fakeCategories struct {
	categories []model.Category
}

func (f *fakeCategories) Categories(_ context.Context) ([]model.Category, error) {
	return f.categories, nil
}

func upiTransaction() model.Transaction {
	return model.Transaction{
		ID:        "msg-1",
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Amount:    decimal.NewFromInt(500),
		Merchant:  "AMAZON",
		Type:      "upi",
		Kind:      model.KindDebit,
		Category:  model.Uncategorized,
	}
}

func newTestVerifier(search *fakeSearch) *Verifier {
	categories := &fakeCategories{categories: []model.Category{{Name: "uncategorized"}, {Name: "food"}, {Name: "rent"}}}
	return NewVerifier(search, categories)
}

func TestVerifier_NoNotifications(t *testing.T) {
	search := &fakeSearch{}
	txn := upiTransaction()
	want := upiTransaction()
	want.EmailChecked = true

	newTestVerifier(search).Verify(context.Background(), &txn)

	assert.True(t, txn.Equal(want))
	assert.Equal(t, DefaultFromAddress, search.from)
	assert.True(t, search.since.Equal(txn.Timestamp.Add(-120*time.Second)))
	assert.True(t, search.until.Equal(txn.Timestamp.Add(120*time.Second)))
}

func TestVerifier_AmountMismatch(t *testing.T) {
	search := &fakeSearch{notifications: []service.Notification{{
		ID:       "n1",
		Subject:  "Sent ₹ 400 to SWIGGY",
		BodyHTML: phonePeHTML("SWIGGY", "400", "food"),
	}}}
	txn := upiTransaction()

	newTestVerifier(search).Verify(context.Background(), &txn)

	assert.True(t, txn.Equal(upiTransaction()))
	assert.False(t, txn.EmailChecked)
}

func TestVerifier_SingleNotificationApplies(t *testing.T) {
	search := &fakeSearch{notifications: []service.Notification{{
		ID:       "n1",
		Subject:  "Sent ₹ 500 to AMAZON INDIA",
		BodyHTML: phonePeHTML("AMAZON INDIA", "500", "Food"),
	}}}
	txn := upiTransaction()

	newTestVerifier(search).Verify(context.Background(), &txn)

	assert.Equal(t, "AMAZON INDIA", txn.Merchant)
	assert.Equal(t, "Food", txn.Message)
	assert.Equal(t, "food", txn.Category)
	assert.True(t, txn.EmailChecked)
	assert.False(t, txn.MultipleMails)
}

func TestVerifier_UnknownCategoryNote(t *testing.T) {
	search := &fakeSearch{notifications: []service.Notification{{
		Subject:  "Sent ₹ 500 to AMAZON",
		BodyHTML: phonePeHTML("AMAZON", "500", "birthday gift"),
	}}}
	txn := upiTransaction()

	newTestVerifier(search).Verify(context.Background(), &txn)

	assert.Equal(t, "birthday gift", txn.Message)
	assert.Equal(t, model.Uncategorized, txn.Category)
	assert.Equal(t, "AMAZON", txn.Merchant)
	assert.True(t, txn.EmailChecked)
}

func TestVerifier_MultipleNotifications(t *testing.T) {
	search := &fakeSearch{notifications: []service.Notification{
		{Subject: "Sent ₹ 500 to AMAZON", BodyHTML: phonePeHTML("AMAZON", "500", "food")},
		{Subject: "Sent ₹ 500 to FLIPKART", BodyHTML: phonePeHTML("FLIPKART", "500", "rent")},
	}}
	txn := upiTransaction()

	newTestVerifier(search).Verify(context.Background(), &txn)

	assert.True(t, txn.EmailChecked)
	assert.True(t, txn.MultipleMails)
	assert.Equal(t, "AMAZON", txn.Merchant)
	assert.Equal(t, model.Uncategorized, txn.Category)
	assert.Empty(t, txn.Message)
}

func TestVerifier_SearchFailureLeavesTransaction(t *testing.T) {
	search := &fakeSearch{err: errors.New("connection reset")}
	txn := upiTransaction()

	newTestVerifier(search).Verify(context.Background(), &txn)

	assert.True(t, txn.Equal(upiTransaction()))
}

func TestVerifier_SkipsOtherPaymentTypes(t *testing.T) {
	search := &fakeSearch{}
	txn := upiTransaction()
	txn.Type = "card"

	newTestVerifier(search).Verify(context.Background(), &txn)

	assert.Zero(t, search.calls)
	assert.False(t, txn.EmailChecked)
}

func TestVerifier_Options(t *testing.T) {
	search := &fakeSearch{}
	v := NewVerifier(search, nil,
		WithFromAddress("alerts@bank.example"),
		WithWindow(time.Minute),
		WithPaymentTypes("IMPS", "neft"))

	txn := upiTransaction()
	assert.False(t, v.Applies(&txn))

	txn.Type = "imps"
	require.True(t, v.Applies(&txn))
	v.Verify(context.Background(), &txn)
	assert.Equal(t, "alerts@bank.example", search.from)
	assert.Equal(t, 2*time.Minute, search.until.Sub(search.since))
}

func TestVerifier_NilSearchDisabled(t *testing.T) {
	v := NewVerifier(nil, nil)
	txn := upiTransaction()
	assert.False(t, v.Applies(&txn))
	v.Verify(context.Background(), &txn)
	assert.False(t, txn.EmailChecked)
}
