// Package sender decides whether a message's sender identifier is trusted.
package sender

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
)

// Separator splits an SMS sender identifier into its operator prefix and header,
// as in "XX-ICICIB".
const Separator = "-"

// Gate checks sender identifiers against the registered sender rules and
// registers identifiers it has never seen for later triage.
type Gate struct {
	store service.SenderStore
}

// NewGate creates a sender gate backed by store. The store is expected to serve
// SenderRules from a cache that AddSender invalidates.
func NewGate(store service.SenderStore) *Gate {
	return &Gate{store: store}
}

// IsTrusted reports whether messages from senderID may produce transactions.
// Identifiers without a separator are never trusted. An identifier that matches
// no rule is registered as unprocessed and is not trusted on this call.
func (g *Gate) IsTrusted(ctx context.Context, senderID string) bool {
	if !strings.Contains(senderID, Separator) {
		return false
	}

	rules, err := g.store.SenderRules(ctx)
	if err != nil {
		slog.Error("Failed to load sender rules", "sender", senderID, "error", err)
		return false
	}

	if rule, ok := FindRule(rules, senderID); ok {
		return rule.Trusted()
	}

	name := DisplayName(senderID)
	if name == "" {
		return false
	}

	rule := &model.SenderRule{
		Name:       name,
		Comparison: model.ComparisonContains,
		Status:     model.SenderUnprocessed,
	}
	if err := g.store.AddSender(ctx, rule); err != nil {
		slog.Error("Failed to register sender", "sender", senderID, "name", name, "error", err)
		return false
	}

	slog.Info("Registered new sender for review", "sender", senderID, "name", name, "rule_id", rule.ID)
	return false
}

// FindRule returns the first rule whose name is a case-insensitive substring of senderID.
func FindRule(rules []model.SenderRule, senderID string) (model.SenderRule, bool) {
	lower := strings.ToLower(senderID)
	for _, rule := range rules {
		if rule.Name == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(rule.Name)) {
			return rule, true
		}
	}
	return model.SenderRule{}, false
}

// DisplayName returns the header part of a sender identifier: the token after
// the first separator.
func DisplayName(senderID string) string {
	parts := strings.Split(senderID, Separator)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
