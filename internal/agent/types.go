// Package agent implements the client for the conversational-agent backend.
package agent

// MessageKind categorizes messages returned by the agent backend for one turn.
type MessageKind string

const (
	// KindFinal is the backend's answer for the turn.
	KindFinal MessageKind = "final"
	// KindInfo is supplementary text accompanying another message.
	KindInfo MessageKind = "info"
	// KindFailure indicates the requested action failed on the backend.
	KindFailure MessageKind = "failure"
	// KindEscalate indicates the backend wants a human to take over.
	KindEscalate MessageKind = "escalate"
)

// TurnMessage is a single message in the backend's reply to one send.
type TurnMessage struct {
	Kind MessageKind `json:"kind"`
	Text string      `json:"text"`
}

// Turn is the backend's full reply to one message send.
type Turn struct {
	Messages []TurnMessage `json:"messages"`
}

// Reply returns the text to surface for this turn: the first message of kind
// final, falling back to the first non-failure message with nonempty text.
func (t *Turn) Reply() (string, bool) {
	for _, m := range t.Messages {
		if m.Kind == KindFinal && m.Text != "" {
			return m.Text, true
		}
	}
	for _, m := range t.Messages {
		if m.Kind != KindFailure && m.Text != "" {
			return m.Text, true
		}
	}
	return "", false
}

// Escalated reports whether the backend asked for a human handoff.
func (t *Turn) Escalated() bool {
	for _, m := range t.Messages {
		if m.Kind == KindEscalate {
			return true
		}
	}
	return false
}

// Failed reports whether the turn carries a failure message.
func (t *Turn) Failed() bool {
	for _, m := range t.Messages {
		if m.Kind == KindFailure {
			return true
		}
	}
	return false
}
