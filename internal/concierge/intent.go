package concierge

import "regexp"

// Intent classifies a user's answer to a pending yes/no confirmation.
type Intent int

const (
	// IntentAmbiguous means the utterance matched neither pattern family; the
	// confirmation prompt should be re-issued unchanged.
	IntentAmbiguous Intent = iota
	// IntentAffirm confirms the read-back identifiers.
	IntentAffirm
	// IntentReject asks to re-enter the identifiers.
	IntentReject
)

var affirmRe = regexp.MustCompile(`(?i)\b(yes|yeah|yep|yup|correct|confirmed?|right|affirmative|exactly|perfect|absolutely|sounds good|that's it)\b`)

var rejectRe = regexp.MustCompile(`(?i)\b(no|nope|nah|wrong|incorrect|change|fix|update|different|redo|retry|mistake|start over)\b`)

// ClassifyConfirmation maps an utterance to Affirm, Reject, or Ambiguous.
// Precedence rule: when both pattern families match ("yes, no wait"),
// affirmation wins.
func ClassifyConfirmation(text string) Intent {
	if affirmRe.MatchString(text) {
		return IntentAffirm
	}
	if rejectRe.MatchString(text) {
		return IntentReject
	}
	return IntentAmbiguous
}
