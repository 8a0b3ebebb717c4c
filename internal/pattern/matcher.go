package pattern

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
)

type compiledPattern struct {
	re  *regexp.Regexp
	err error
}

// Matcher evaluates messages against the registered extraction rules in
// registration order. The first rule whose sender filter and expression both
// match wins.
type Matcher struct {
	store    service.RuleStore
	compiled map[string]compiledPattern
	mu       sync.Mutex
}

// NewMatcher creates a matcher reading rules from store on every evaluation.
// Compiled expressions are kept for the matcher's lifetime, keyed by pattern text.
func NewMatcher(store service.RuleStore) *Matcher {
	return &Matcher{
		store:    store,
		compiled: make(map[string]compiledPattern),
	}
}

// Match returns the first rule that fires for the message. An error is returned
// only when the rules cannot be loaded; rules with malformed expressions are
// logged and skipped.
func (m *Matcher) Match(ctx context.Context, senderID, body string) (Result, error) {
	rules, err := m.store.ExtractionRules(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load extraction rules: %w", err)
	}

	sender := strings.ToLower(senderID)
	for _, rule := range rules {
		if !strings.Contains(sender, strings.ToLower(rule.SenderFilter)) {
			continue
		}

		re, err := m.compile(rule.Pattern)
		if err != nil {
			slog.Error("Skipping extraction rule with invalid pattern",
				"rule_id", rule.ID,
				"pattern", rule.Pattern,
				"error", err)
			continue
		}

		captures, ok := common.SubmatchMap(re, body)
		if !ok {
			continue
		}

		result := Result{Rule: rule, Fired: true}
		if rule.Outcome == model.OutcomeApprove {
			result.Fields = trimFields(captures)
		}
		return result, nil
	}

	return Result{}, nil
}

func (m *Matcher) compile(pattern string) (*regexp.Regexp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.compiled[pattern]; ok {
		return c.re, c.err
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		err = fmt.Errorf("%w: %w", common.ErrInvalidPattern, err)
	}
	m.compiled[pattern] = compiledPattern{re: re, err: err}
	return re, err
}

// ExtractFields runs pattern against text and returns its trimmed named captures.
// A malformed pattern is logged and reported as no match.
func ExtractFields(pattern, text string) (bool, model.FieldSet) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		slog.Error("Invalid extraction pattern", "pattern", pattern, "error", err)
		return false, model.FieldSet{}
	}

	captures, ok := common.SubmatchMap(re, text)
	if !ok {
		return false, model.FieldSet{}
	}
	return true, trimFields(captures)
}

func trimFields(captures map[string]string) model.FieldSet {
	fields := make(model.FieldSet, len(captures))
	for name, value := range captures {
		fields[name] = strings.TrimSpace(value)
	}
	return fields
}
