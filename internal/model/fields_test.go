package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldSet_OverlayOverridesWin(t *testing.T) {
	captured := FieldSet{"account_no": "XX1234", "amount": "500.00", "Type": "card"}
	metadata := FieldSet{"type": "upi", "category": "food"}

	got := captured.Overlay(metadata)

	assert.Equal(t, FieldSet{
		"account":  "XX1234",
		"amount":   "500.00",
		"type":     "upi",
		"category": "food",
	}, got)
	assert.Equal(t, "card", captured["Type"], "overlay must not modify the receiver")
}

func TestFieldSet_OverlayCanonicalKeyWinsOverAlias(t *testing.T) {
	captured := FieldSet{"account_no": "XX0001", "acct": "XX0002", "account": "XX1234"}
	metadata := FieldSet{"bal": "10", "balance": "20"}

	for range 50 {
		got := captured.Overlay(metadata)
		assert.Equal(t, "XX1234", got[FieldAccount])
		assert.Equal(t, "20", got[FieldBalance])
		assert.NotContains(t, got, "account_no")
	}

	aliasesOnly := FieldSet{"account_no": "XX0001", "acct": "XX0002"}.Overlay(nil)
	assert.Equal(t, "XX0002", aliasesOnly[FieldAccount])
}

func TestFieldSet_Get(t *testing.T) {
	f := FieldSet{"amount": " 500 ", "balance": "  "}

	v, ok := f.Get("amount")
	assert.True(t, ok)
	assert.Equal(t, "500", v)

	_, ok = f.Get("balance")
	assert.False(t, ok)

	_, ok = f.Get("merchant")
	assert.False(t, ok)
}

func TestFieldSet_Keys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, FieldSet{"c": "", "a": "", "b": ""}.Keys())
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]TransactionKind{
		"":        KindDebit,
		"Debited": KindDebit,
		"credit":  KindCredit,
		" CR ":    KindCredit,
	} {
		got, err := ParseKind(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("refund")
	assert.Error(t, err)
}

func TestTransaction_IsUncategorized(t *testing.T) {
	assert.True(t, Transaction{}.IsUncategorized())
	assert.True(t, Transaction{Category: Uncategorized}.IsUncategorized())
	assert.False(t, Transaction{Category: "food"}.IsUncategorized())
}
