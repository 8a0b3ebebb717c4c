// Package service defines the collaborator contracts consumed by the ledger core.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/smsledger/internal/model"
)

// SenderStore persists sender trust rules.
type SenderStore interface {
	// SenderRules returns every sender rule in registration order.
	SenderRules(ctx context.Context) ([]model.SenderRule, error)
	AddSender(ctx context.Context, rule *model.SenderRule) error
	UpdateSenderStatus(ctx context.Context, id string, status model.SenderStatus) error
}

// RuleStore persists extraction rules.
type RuleStore interface {
	// ExtractionRules returns every rule in registration order.
	ExtractionRules(ctx context.Context) ([]model.ExtractionRule, error)
	UpsertExtractionRule(ctx context.Context, rule *model.ExtractionRule) error
	DeleteExtractionRule(ctx context.Context, id string) error
}

// MessageStore persists ingested messages and their classification status.
type MessageStore interface {
	SaveMessages(ctx context.Context, accountID string, messages []model.Message) error
	ListMessagesSince(ctx context.Context, accountID string, since time.Time) ([]model.Message, error)
	BatchUpdateMessageStatus(ctx context.Context, accountID string, messages []model.Message) error
	UnprocessMessage(ctx context.Context, accountID, id string) error
}

// TransactionStore persists reconciled transactions.
type TransactionStore interface {
	// GetTransaction returns common.ErrNotFound when no transaction has the id.
	GetTransaction(ctx context.Context, accountID, id string) (*model.Transaction, error)
	UpsertTransaction(ctx context.Context, accountID, id string, txn *model.Transaction) error
	BatchInsertTransactions(ctx context.Context, accountID string, txns []model.Transaction) error
	ListTransactions(ctx context.Context, accountID string, since time.Time) ([]model.Transaction, error)
}

// MerchantCategoryStore maps merchants to their last assigned category.
type MerchantCategoryStore interface {
	MerchantCategories(ctx context.Context) (map[string]string, error)
	SetMerchantCategory(ctx context.Context, merchant, category string) error
}

// CategoryStore lists the categories transactions may be assigned to.
type CategoryStore interface {
	Categories(ctx context.Context) ([]model.Category, error)
}

// Storage is the full persistence surface used by the CLI.
type Storage interface {
	SenderStore
	RuleStore
	MessageStore
	TransactionStore
	MerchantCategoryStore
	CategoryStore

	Migrate(ctx context.Context) error
	Close() error
}

// Notification is a message from the secondary notification source.
type Notification struct {
	ReceivedAt time.Time
	ID         string
	From       string
	Subject    string
	BodyHTML   string
}

// NotificationSearch finds notifications from one address within a time window.
type NotificationSearch interface {
	Search(ctx context.Context, fromAddress string, since, until time.Time) ([]Notification, error)
}
