// Package pattern applies extraction rules to message bodies.
package pattern

import (
	"github.com/Veraticus/smsledger/internal/model"
)

// Result is the outcome of evaluating a message against the extraction rules.
type Result struct {
	// Fields holds the trimmed named captures of the winning rule. It is nil
	// when no rule fired or the rule rejects the message.
	Fields model.FieldSet
	Rule   model.ExtractionRule
	Fired  bool
}

// Approved reports whether a rule fired with the approve outcome.
func (r Result) Approved() bool {
	return r.Fired && r.Rule.Outcome == model.OutcomeApprove
}

// Rejected reports whether a rule fired with the reject outcome.
func (r Result) Rejected() bool {
	return r.Fired && r.Rule.Outcome == model.OutcomeReject
}
