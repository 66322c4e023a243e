package concierge

import "testing"

func TestClassifyConfirmation(t *testing.T) {
	tests := []struct {
		input string
		want  Intent
	}{
		{"yes", IntentAffirm},
		{"Yep, that's it", IntentAffirm},
		{"sounds good to me", IntentAffirm},
		{"confirmed", IntentAffirm},
		{"absolutely perfect", IntentAffirm},
		{"no", IntentReject},
		{"nope, that's wrong", IntentReject},
		{"please fix the email", IntentReject},
		{"the number is different", IntentReject},
		{"hmm let me think", IntentAmbiguous},
		{"what was the second one?", IntentAmbiguous},
		// "know" must not trip the \bno\b pattern.
		{"I don't know", IntentAmbiguous},
		// Both families match: affirmation takes precedence.
		{"yes... no wait", IntentAffirm},
		{"correct, but change the email", IntentAffirm},
	}

	for _, tt := range tests {
		if got := ClassifyConfirmation(tt.input); got != tt.want {
			t.Errorf("ClassifyConfirmation(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
