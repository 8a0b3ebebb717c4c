package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/smsledger/internal/deferred"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
)

// ClassifyStats summarizes one classification run.
type ClassifyStats struct {
	Matched      int
	Rejected     int
	Unprocessed  int
	Skipped      int
	Written      int
	Transactions int
}

// Classifier drives a batch of messages through sender trust, deduplication
// and rule matching, then hands the resulting transactions to reconciliation.
type Classifier struct {
	gate       TrustGate
	matcher    RuleMatcher
	messages   service.MessageStore
	reconciler TransactionReconciler
	executor   deferred.Executor
}

// NewClassifier creates a classifier. Reconciliation is submitted to executor;
// a nil executor is replaced by a pool of deferred.DefaultMaxWorkers workers.
func NewClassifier(gate TrustGate, matcher RuleMatcher, messages service.MessageStore,
	reconciler TransactionReconciler, executor deferred.Executor) *Classifier {
	if executor == nil {
		executor = deferred.NewPool(context.Background(), deferred.DefaultMaxWorkers)
	}
	return &Classifier{
		gate:       gate,
		matcher:    matcher,
		messages:   messages,
		reconciler: reconciler,
		executor:   executor,
	}
}

// WithExecutor returns a copy of the classifier that submits reconciliation to
// executor, such as a queue owned by the current request. A nil executor
// keeps the current one.
func (c *Classifier) WithExecutor(executor deferred.Executor) *Classifier {
	if executor == nil {
		return c
	}
	clone := *c
	clone.executor = executor
	return &clone
}

// Classify evaluates messages for accountID. Changed statuses are written in
// one batch; unchanged messages are not written. Reconciliation of the
// resulting transactions is submitted to the executor and not awaited.
func (c *Classifier) Classify(ctx context.Context, accountID string, messages []model.Message) (ClassifyStats, error) {
	var stats ClassifyStats
	dedup := NewDeduplicator()
	logger := slog.With("account", accountID)

	var changed []model.Message
	var transactions []model.Transaction

	for _, original := range messages {
		msg := original
		txn, emitted := c.classifyOne(ctx, logger, dedup, &msg)

		switch msg.Status {
		case model.MessageMatched:
			stats.Matched++
		case model.MessageRejected:
			stats.Rejected++
		default:
			stats.Unprocessed++
		}
		if strings.TrimSpace(original.Body) == "" {
			stats.Skipped++
		}

		if msg.Status != original.Status || msg.MatchedRuleID != original.MatchedRuleID {
			changed = append(changed, msg)
		}
		if emitted {
			transactions = append(transactions, txn)
		}
	}

	if len(changed) > 0 {
		if err := c.messages.BatchUpdateMessageStatus(ctx, accountID, changed); err != nil {
			return stats, fmt.Errorf("failed to update message statuses: %w", err)
		}
		stats.Written = len(changed)
	}

	stats.Transactions = len(transactions)
	if len(transactions) > 0 {
		c.executor.Submit("reconcile:"+accountID, func(ctx context.Context) {
			c.reconciler.Reconcile(ctx, accountID, transactions)
		})
	}

	logger.Info("Classified messages",
		"matched", stats.Matched,
		"rejected", stats.Rejected,
		"unprocessed", stats.Unprocessed,
		"written", stats.Written,
		"transactions", stats.Transactions)
	return stats, nil
}

// classifyOne sets msg's status and matched rule and returns the transaction
// candidate it produced, if any.
func (c *Classifier) classifyOne(ctx context.Context, logger *slog.Logger, dedup *Deduplicator, msg *model.Message) (model.Transaction, bool) {
	if strings.TrimSpace(msg.Body) == "" {
		return model.Transaction{}, false
	}

	if msg.Sender == "" {
		logger.Info("Rejecting message with no sender", "message_id", msg.ID)
		reject(msg)
		return model.Transaction{}, false
	}

	if !c.gate.IsTrusted(ctx, msg.Sender) {
		logger.Debug("Rejecting message from untrusted sender", "message_id", msg.ID, "sender", msg.Sender)
		reject(msg)
		return model.Transaction{}, false
	}

	if dedup.Seen(Fingerprint(msg.Body)) {
		logger.Info("Rejecting duplicate message", "message_id", msg.ID)
		reject(msg)
		return model.Transaction{}, false
	}

	result, err := c.matcher.Match(ctx, msg.Sender, msg.Body)
	if err != nil {
		logger.Error("Failed to match message", "message_id", msg.ID, "error", err)
		return model.Transaction{}, false
	}

	switch {
	case result.Rejected():
		msg.Status = model.MessageRejected
		msg.MatchedRuleID = result.Rule.ID
		return model.Transaction{}, false

	case result.Approved():
		msg.Status = model.MessageMatched
		msg.MatchedRuleID = result.Rule.ID
		txn, err := BuildTransaction(result.Fields, result.Rule.Metadata, *msg)
		if err != nil {
			logger.Error("Discarding transaction that could not be built",
				"message_id", msg.ID,
				"rule_id", result.Rule.ID,
				"error", err)
			return model.Transaction{}, false
		}
		return txn, true
	}

	msg.Status = model.MessageUnprocessed
	msg.MatchedRuleID = ""
	return model.Transaction{}, false
}

// reject marks msg rejected without a matched rule. A message rejected by an
// earlier run is left as it is so it is not rewritten.
func reject(msg *model.Message) {
	if msg.Status == model.MessageRejected {
		return
	}
	msg.Status = model.MessageRejected
	msg.MatchedRuleID = ""
}
