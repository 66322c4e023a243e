// Package domain contains core domain types for the concierge proxy.
package domain

import (
	"time"
)

// SessionRecord correlates a caller with a conversation held by the agent
// backend. One row per user_id.
type SessionRecord struct {
	UserID         string
	SessionHandle  string
	SequenceNumber int64
	Pending        *PendingConfirmation
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PendingConfirmation holds identifiers extracted from a user utterance that
// must be read back and confirmed before the utterance is acted on. It exists
// only while a yes/no answer is outstanding.
type PendingConfirmation struct {
	Email                string `json:"email,omitempty"`
	ReservationID        string `json:"reservation_id,omitempty"`
	AwaitingConfirmation bool   `json:"awaiting_confirmation"`
	OriginalMessage      string `json:"original_message"`
}

// Complete reports whether both identifiers were captured.
func (p *PendingConfirmation) Complete() bool {
	return p != nil && p.Email != "" && p.ReservationID != ""
}

// HasSession returns true if the record carries a usable backend handle.
func (r *SessionRecord) HasSession() bool {
	return r != nil && r.SessionHandle != ""
}

// Message is a single chat turn as carried on the wire.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
