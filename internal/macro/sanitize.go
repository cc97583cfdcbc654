package macro

import (
	"regexp"
	"strings"
)

var blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)

// Sanitize removes /* ... */ comments and every non-printable character other
// than line breaks and horizontal tabs. Line structure is kept so the assembler
// can still see physical lines; bodies get the strict filter in Assemble.
//
// Characters are filtered before comments are removed, and comment removal
// repeats until nothing changes. Either step could otherwise splice a new "/*"
// together and leave Sanitize non-idempotent. As a result "/\x01*" opens a
// comment.
func Sanitize(text string) string {
	text = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' || isPrintable(r) {
			return r
		}
		return -1
	}, text)

	for {
		next := blockCommentRe.ReplaceAllString(text, "")
		if next == text {
			return text
		}
		text = next
	}
}

// StripNonPrintable drops every character outside printable ASCII (0x20-0x7E),
// including tabs and invalid UTF-8 bytes.
func StripNonPrintable(s string) string {
	return strings.Map(func(r rune) rune {
		if isPrintable(r) {
			return r
		}
		return -1
	}, s)
}

func isPrintable(r rune) bool {
	return r >= 0x20 && r <= 0x7e
}
