package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

// BuildTransaction turns the fields captured from msg into a transaction
// candidate. Rule metadata is overlaid on the captures and wins on collisions.
// The transaction takes its identity and timestamp from the message; the
// timestamp is truncated to whole seconds, the precision storage keeps.
func BuildTransaction(captured, metadata model.FieldSet, msg model.Message) (model.Transaction, error) {
	fields := captured.Overlay(metadata)

	raw, ok := fields.Get(model.FieldAmount)
	if !ok {
		return model.Transaction{}, fmt.Errorf("%w: no amount captured", common.ErrInvalidAmount)
	}
	amount, err := ParseAmount(raw)
	if err != nil {
		return model.Transaction{}, err
	}

	kindValue, _ := fields.Get(model.FieldKind)
	kind, err := model.ParseKind(kindValue)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("%w: %w", common.ErrInvalidKind, err)
	}

	txn := model.Transaction{
		ID:        msg.ID,
		Timestamp: msg.Timestamp.Truncate(time.Second),
		Amount:    amount,
		Kind:      kind,
		Category:  model.Uncategorized,
	}

	if raw, ok := fields.Get(model.FieldBalance); ok {
		balance, err := ParseAmount(raw)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("balance: %w", err)
		}
		txn.Balance = decimal.NewNullDecimal(balance)
	}

	txn.Account, _ = fields.Get(model.FieldAccount)
	txn.Merchant, _ = fields.Get(model.FieldMerchant)
	txn.Date, _ = fields.Get(model.FieldDate)
	txn.Message, _ = fields.Get(model.FieldMessage)
	if v, ok := fields.Get(model.FieldType); ok {
		txn.Type = strings.ToLower(v)
	}
	if v, ok := fields.Get(model.FieldCategory); ok {
		txn.Category = strings.ToLower(v)
	}

	return txn, nil
}

// ParseAmount parses a decimal amount, ignoring thousands separators.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", common.ErrInvalidAmount, raw)
	}
	return amount, nil
}
