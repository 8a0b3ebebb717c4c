// Package model defines the core data structures for the ledger.
package model

import "time"

// MessageStatus is the classification state of an ingested message.
type MessageStatus string

// Message statuses.
const (
	MessageUnprocessed MessageStatus = "unprocessed"
	MessageMatched     MessageStatus = "matched"
	MessageRejected    MessageStatus = "rejected"
)

// Message is a short free-text notification as received from a device.
type Message struct {
	Timestamp     time.Time
	ID            string
	Sender        string
	Body          string
	Status        MessageStatus
	MatchedRuleID string
}

// IsValid reports whether s is a known message status.
func (s MessageStatus) IsValid() bool {
	switch s {
	case MessageUnprocessed, MessageMatched, MessageRejected:
		return true
	}
	return false
}
