package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/smsledger/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidMessage     = errors.New("invalid message")
	ErrInvalidSender      = errors.New("invalid sender rule")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateMessage(msg *model.Message) error {
	if msg == nil {
		return fmt.Errorf("%w: message", ErrNilParameter)
	}
	if msg.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidMessage)
	}
	if strings.TrimSpace(msg.Body) == "" {
		return fmt.Errorf("%w: message %s has empty body", ErrInvalidMessage, msg.ID)
	}
	if msg.Timestamp.IsZero() {
		return fmt.Errorf("%w: message %s missing timestamp", ErrInvalidMessage, msg.ID)
	}
	if msg.Status != "" && !msg.Status.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, msg.Status)
	}
	return nil
}

func validateSender(rule *model.SenderRule) error {
	if rule == nil {
		return fmt.Errorf("%w: sender", ErrNilParameter)
	}
	if strings.TrimSpace(rule.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidSender)
	}
	if !rule.Status.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, rule.Status)
	}
	return nil
}

func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.Timestamp.IsZero() {
		return fmt.Errorf("%w: %s missing timestamp", ErrInvalidTransaction, txn.ID)
	}
	return nil
}
