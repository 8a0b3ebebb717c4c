package model

import "time"

// RuleOutcome is what happens to a message when an extraction rule fires.
type RuleOutcome string

// Rule outcomes.
const (
	OutcomeApprove RuleOutcome = "approve"
	OutcomeReject  RuleOutcome = "reject"
)

// ExtractionRule pairs a sender filter with a regular expression. Named capture
// groups become transaction fields; Metadata is overlaid on top of them.
type ExtractionRule struct {
	CreatedAt    time.Time
	Metadata     FieldSet
	ID           string
	SenderFilter string
	Pattern      string
	Outcome      RuleOutcome
	CreatedBy    string
}

// IsValid reports whether o is a known rule outcome.
func (o RuleOutcome) IsValid() bool {
	return o == OutcomeApprove || o == OutcomeReject
}
