package model

import "time"

// SenderStatus is the trust state of a sender rule.
type SenderStatus string

// Sender statuses.
const (
	SenderApproved    SenderStatus = "approved"
	SenderUnprocessed SenderStatus = "unprocessed"
	SenderRejected    SenderStatus = "rejected"
)

// ComparisonMode describes how a sender rule name is compared to a sender identifier.
type ComparisonMode string

// ComparisonContains matches when the rule name is a case-insensitive substring of the sender.
const ComparisonContains ComparisonMode = "contains"

// SenderRule decides whether messages from matching senders are trusted.
type SenderRule struct {
	CreatedAt  time.Time
	ID         string
	Name       string
	Comparison ComparisonMode
	Status     SenderStatus
}

// Trusted reports whether messages from this sender may produce transactions.
// Unprocessed senders are trusted until someone rejects them.
func (r SenderRule) Trusted() bool {
	return r.Status == SenderApproved || r.Status == SenderUnprocessed
}

// IsValid reports whether s is a known sender status.
func (s SenderStatus) IsValid() bool {
	switch s {
	case SenderApproved, SenderUnprocessed, SenderRejected:
		return true
	}
	return false
}
