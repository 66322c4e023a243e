package concierge

import (
	"regexp"
	"strings"
)

// The video client wraps utterances in markup describing avatar appearance,
// emotion, and on-screen state. None of it is user speech.
var metadataTagRe = regexp.MustCompile(`(?is)<(appearance|emotion|screen)\b[^>]*>.*?</(appearance|emotion|screen)\s*>|<(appearance|emotion|screen)\b[^>]*/?>`)

// spokenEmailRe matches an email address dictated out loud ("john dot smith
// at example dot com"). The "at" rewrite only fires inside an email-shaped
// phrase whose domain ends in a letters-only label, so that "a table at
// seven" and "a table at 7.30pm" survive untouched.
var spokenEmailRe = regexp.MustCompile(`(?i)\b([a-z0-9][\w+-]*(?:\s+dot\s+[a-z0-9][\w+-]*)*)\s+at\s+([a-z0-9][\w-]*(?:(?:\s+dot\s+|\.)[a-z0-9][\w-]*)*(?:\s+dot\s+|\.)[a-z]{2,})\b`)

var spokenDotRe = regexp.MustCompile(`(?i)\s+dot\s+`)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanUtterance normalizes an inbound utterance before any extraction or
// relay: strips client metadata markup, rewrites dictated email patterns into
// symbolic form, and collapses whitespace. Runs on every inbound message.
func CleanUtterance(text string) string {
	text = metadataTagRe.ReplaceAllString(text, " ")

	text = spokenEmailRe.ReplaceAllStringFunc(text, func(m string) string {
		parts := spokenEmailRe.FindStringSubmatch(m)
		local := spokenDotRe.ReplaceAllString(parts[1], ".")
		domain := spokenDotRe.ReplaceAllString(parts[2], ".")
		return local + "@" + domain
	})

	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}
