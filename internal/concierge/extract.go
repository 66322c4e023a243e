package concierge

import (
	"regexp"
	"strings"
	"unicode"
)

var emailRe = regexp.MustCompile(`[\w.+-]+@[\w.-]+\.\w{2,}`)

// Reservation IDs look like "AB-1234" or "XYZ-123456".
var reservationIDRe = regexp.MustCompile(`(?i)\b[A-Z]{2,3}-\d{4,6}\b`)

// ExtractIdentifiers pulls the first email-shaped and reservation-ID-shaped
// tokens out of free text. Either result may be empty.
func ExtractIdentifiers(text string) (email, reservationID string) {
	email = emailRe.FindString(text)
	reservationID = reservationIDRe.FindString(text)
	return email, reservationID
}

// Spell renders a string as an enumerated sequence of named characters so a
// text-to-speech voice reads it unambiguously. Letters are upper-cased and
// spoken one by one, digits pass through, and email punctuation gets its
// spoken name.
func Spell(s string) string {
	parts := make([]string, 0, len(s))
	for _, r := range s {
		switch {
		case r == '@':
			parts = append(parts, "at sign")
		case r == '.':
			parts = append(parts, "dot")
		case r == '-':
			parts = append(parts, "dash")
		case r == '_':
			parts = append(parts, "underscore")
		case unicode.IsLetter(r):
			parts = append(parts, strings.ToUpper(string(r)))
		default:
			parts = append(parts, string(r))
		}
	}
	return strings.Join(parts, ", ")
}

// confirmationPrompt reads both extracted identifiers back to the user,
// character by character, and asks for a yes/no.
func confirmationPrompt(email, reservationID string) string {
	return "Let me make sure I have that right. Your email address, letter by letter: " +
		Spell(email) + ". And your reservation number: " + Spell(reservationID) +
		". Did I get both of those right?"
}
