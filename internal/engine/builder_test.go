package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

func TestBuildTransaction(t *testing.T) {
	msg := newMessage("msg-1", "XX-ICICIB", iciciBody)
	captured := model.FieldSet{"account_no": "XX1234", "amount": "500.00", "date": "01-Jan-24", "merchant": "AMAZON"}
	metadata := model.FieldSet{"type": "UPI"}

	txn, err := BuildTransaction(captured, metadata, msg)
	require.NoError(t, err)

	assert.Equal(t, "msg-1", txn.ID)
	assert.True(t, txn.Timestamp.Equal(testTime))
	assert.True(t, txn.Amount.Equal(decimal.RequireFromString("500.00")))
	assert.Equal(t, "XX1234", txn.Account)
	assert.Equal(t, "AMAZON", txn.Merchant)
	assert.Equal(t, "01-Jan-24", txn.Date)
	assert.Equal(t, "upi", txn.Type)
	assert.Equal(t, model.KindDebit, txn.Kind)
	assert.Equal(t, model.Uncategorized, txn.Category)
	assert.False(t, txn.Balance.Valid)
}

func TestBuildTransaction_MetadataWins(t *testing.T) {
	captured := model.FieldSet{"amount": "100", "merchant": "AMZN MKTP", "kind": "debited"}
	metadata := model.FieldSet{"merchant": "AMAZON", "kind": "credit", "category": "Shopping"}

	txn, err := BuildTransaction(captured, metadata, newMessage("m", "XX-ICICIB", "x"))
	require.NoError(t, err)
	assert.Equal(t, "AMAZON", txn.Merchant)
	assert.Equal(t, model.KindCredit, txn.Kind)
	assert.Equal(t, "shopping", txn.Category)
}

func TestBuildTransaction_TruncatesTimestamp(t *testing.T) {
	msg := newMessage("m", "XX-ICICIB", "x")
	msg.Timestamp = testTime.Add(750 * time.Millisecond)

	txn, err := BuildTransaction(model.FieldSet{"amount": "10"}, nil, msg)
	require.NoError(t, err)
	assert.True(t, txn.Timestamp.Equal(testTime))
}

func TestBuildTransaction_ThousandsSeparators(t *testing.T) {
	captured := model.FieldSet{"amount": "1,234.56", "bal": "1,00,000.00"}

	txn, err := BuildTransaction(captured, nil, newMessage("m", "XX-ICICIB", "x"))
	require.NoError(t, err)
	assert.True(t, txn.Amount.Equal(decimal.RequireFromString("1234.56")))
	require.True(t, txn.Balance.Valid)
	assert.True(t, txn.Balance.Decimal.Equal(decimal.NewFromInt(100000)))
}

func TestBuildTransaction_Failures(t *testing.T) {
	tests := []struct {
		wantErr  error
		captured model.FieldSet
		name     string
	}{
		{name: "missing amount", captured: model.FieldSet{"merchant": "AMAZON"}, wantErr: common.ErrInvalidAmount},
		{name: "blank amount", captured: model.FieldSet{"amount": "  "}, wantErr: common.ErrInvalidAmount},
		{name: "unparseable amount", captured: model.FieldSet{"amount": "five hundred"}, wantErr: common.ErrInvalidAmount},
		{name: "unparseable balance", captured: model.FieldSet{"amount": "5", "balance": "n/a"}, wantErr: common.ErrInvalidAmount},
		{name: "unknown kind", captured: model.FieldSet{"amount": "5", "kind": "refund"}, wantErr: common.ErrInvalidKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildTransaction(tt.captured, nil, newMessage("m", "XX-ICICIB", "x"))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
