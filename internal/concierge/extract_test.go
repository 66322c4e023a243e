package concierge

import "testing"

func TestExtractIdentifiers(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantEmail string
		wantID    string
	}{
		{
			name:      "both present",
			input:     "my email is jane@example.com and the booking is RES-12345",
			wantEmail: "jane@example.com",
			wantID:    "RES-12345",
		},
		{
			name:      "lowercase reservation id",
			input:     "it was ab-4567 under bob.smith+work@mail.co",
			wantEmail: "bob.smith+work@mail.co",
			wantID:    "ab-4567",
		},
		{
			name:  "email only",
			input: "jane@example.com",
			wantEmail: "jane@example.com",
		},
		{
			name:  "id only",
			input: "reservation XYZ-123456 please",
			wantID: "XYZ-123456",
		},
		{
			name:  "neither",
			input: "do you have outdoor seating",
		},
		{
			name:  "too many digits is not an id",
			input: "call me at AB-1234567",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, id := ExtractIdentifiers(tt.input)
			if email != tt.wantEmail {
				t.Errorf("email = %q, want %q", email, tt.wantEmail)
			}
			if id != tt.wantID {
				t.Errorf("reservationID = %q, want %q", id, tt.wantID)
			}
		})
	}
}

func TestSpell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a.b@x.co", "A, dot, B, at sign, X, dot, C, O"},
		{"RES-1234", "R, E, S, dash, 1, 2, 3, 4"},
		{"a_b", "A, underscore, B"},
	}

	for _, tt := range tests {
		if got := Spell(tt.input); got != tt.want {
			t.Errorf("Spell(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
