package concierge

import (
	"strings"
)

// RedactionToken is the placeholder the agent backend substitutes for
// sensitive values it will not repeat.
const RedactionToken = "[REDACTED]"

// redactionSpoken is what the avatar says instead of reading the raw token
// bracket by bracket.
const redactionSpoken = "the details I have on file"

var quoteReplacer = strings.NewReplacer(
	"‘", "'", // left single curly quote
	"’", "'", // right single curly quote
	"“", `"`, // left double curly quote
	"”", `"`, // right double curly quote
)

// SanitizeReply prepares backend text for a text-to-speech consumer: curly
// quotes become straight quotes, the redaction placeholder becomes a spoken
// phrase, and all whitespace runs collapse to single spaces. The avatar
// mispronounces raw newlines and markdown artifacts, hence the flattening.
func SanitizeReply(text string) string {
	text = strings.ReplaceAll(text, RedactionToken, redactionSpoken)
	text = quoteReplacer.Replace(text)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}
