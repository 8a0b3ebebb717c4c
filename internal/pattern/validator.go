package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

// ValidateRule checks that a rule can be registered: it needs a known outcome
// and an expression that compiles. Approve rules must capture at least one
// named group, otherwise they could never produce a transaction.
func ValidateRule(rule model.ExtractionRule) error {
	if !rule.Outcome.IsValid() {
		return fmt.Errorf("%w: unknown outcome %q", common.ErrInvalidRule, rule.Outcome)
	}
	if strings.TrimSpace(rule.Pattern) == "" {
		return fmt.Errorf("%w: empty pattern", common.ErrInvalidRule)
	}

	re, err := regexp.Compile(rule.Pattern)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidPattern, err)
	}

	if rule.Outcome == model.OutcomeApprove {
		if len(common.NamedGroups(re)) == 0 {
			return fmt.Errorf("%w: approve rule has no named capture groups", common.ErrInvalidRule)
		}
	}

	return nil
}
