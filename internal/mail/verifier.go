package mail

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
)

// Defaults for the PhonePe notification source.
const (
	DefaultFromAddress = "noreply@phonepe.com"
	DefaultWindow      = 120 * time.Second
	DefaultPaymentType = "upi"
)

// Verifier enriches transactions with details from payment notification
// emails received around the time of the transaction. It is best-effort:
// failures are logged and leave the transaction as it was.
type Verifier struct {
	search       service.NotificationSearch
	categories   service.CategoryStore
	paymentTypes map[string]bool
	fromAddress  string
	window       time.Duration
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithFromAddress sets the sender address notifications are searched for.
func WithFromAddress(address string) Option {
	return func(v *Verifier) {
		if address != "" {
			v.fromAddress = address
		}
	}
}

// WithWindow sets how far either side of the transaction time to search.
func WithWindow(window time.Duration) Option {
	return func(v *Verifier) {
		if window > 0 {
			v.window = window
		}
	}
}

// WithPaymentTypes sets which transaction types have matching notifications.
func WithPaymentTypes(types ...string) Option {
	return func(v *Verifier) {
		if len(types) == 0 {
			return
		}
		v.paymentTypes = make(map[string]bool, len(types))
		for _, t := range types {
			v.paymentTypes[strings.ToLower(strings.TrimSpace(t))] = true
		}
	}
}

// NewVerifier creates a verifier using search to find notifications and
// categories to map payer notes onto category names. A nil search disables
// verification.
func NewVerifier(search service.NotificationSearch, categories service.CategoryStore, opts ...Option) *Verifier {
	v := &Verifier{
		search:       search,
		categories:   categories,
		fromAddress:  DefaultFromAddress,
		window:       DefaultWindow,
		paymentTypes: map[string]bool{DefaultPaymentType: true},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Applies reports whether txn has a payment type with a notification source.
func (v *Verifier) Applies(txn *model.Transaction) bool {
	return v.search != nil && v.paymentTypes[strings.ToLower(txn.Type)]
}

// Verify looks for notifications around txn and updates it in place.
//
// No notification marks the transaction checked. One notification whose
// subject amount disagrees leaves the transaction untouched and unchecked.
// Otherwise the merchant, payer note and category are taken from the body.
// More than one notification marks the transaction checked and ambiguous.
func (v *Verifier) Verify(ctx context.Context, txn *model.Transaction) {
	if !v.Applies(txn) {
		return
	}

	logger := slog.With("transaction_id", txn.ID, "merchant", txn.Merchant)
	logger.Debug("Checking notification email for transaction")

	notifications, err := v.search.Search(ctx, v.fromAddress,
		txn.Timestamp.Add(-v.window), txn.Timestamp.Add(v.window))
	if err != nil {
		logger.Error("Failed to search notification emails", "error", err)
		return
	}

	switch len(notifications) {
	case 0:
		logger.Info("No notification email found")
		txn.EmailChecked = true
	case 1:
		v.apply(ctx, logger, txn, notifications[0])
	default:
		logger.Info("Found multiple notification emails, leaving transaction unresolved", "count", len(notifications))
		txn.EmailChecked = true
		txn.MultipleMails = true
	}
}

func (v *Verifier) apply(ctx context.Context, logger *slog.Logger, txn *model.Transaction, n service.Notification) {
	subject := ParseSubject(n.Subject)
	if raw, ok := subject.Get(model.FieldAmount); ok {
		amount, err := decimal.NewFromString(raw)
		if err == nil && !amount.Equal(txn.Amount) {
			logger.Info("Notification amount does not match transaction",
				"expected", txn.Amount.String(),
				"got", amount.String())
			return
		}
	}

	body, err := ParseBody(n.BodyHTML)
	if err != nil {
		logger.Error("Failed to parse notification body", "notification_id", n.ID, "error", err)
		return
	}

	if recipient, ok := body.Get(FieldRecipient); ok && recipient != txn.Merchant {
		logger.Info("Updating merchant from notification", "recipient", recipient)
		txn.Merchant = recipient
	}

	if note, ok := body.Get(model.FieldMessage); ok {
		txn.Message = note
		if category, found := v.category(ctx, note); found {
			txn.Category = category
		}
	}

	txn.EmailChecked = true
}

func (v *Verifier) category(ctx context.Context, note string) (string, bool) {
	if v.categories == nil {
		return "", false
	}

	categories, err := v.categories.Categories(ctx)
	if err != nil {
		slog.Error("Failed to load categories", "error", err)
		return "", false
	}

	name := strings.ToLower(strings.TrimSpace(note))
	for _, c := range categories {
		if strings.ToLower(c.Name) == name {
			return c.Name, true
		}
	}
	return "", false
}
