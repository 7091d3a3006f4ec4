// Package normalize canonicalizes user-supplied identity fields before they are stored or compared.
package normalize

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// Email trims and lowercases an email address. Emails are unique case-insensitively.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses internal runs of spaces.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NameCI returns the folded form of a name used for case/diacritic-insensitive sorting.
func NameCI(s string) string {
	return text.Fold(Name(s))
}

// Phone strips spaces, dots and dashes, keeping a leading "+".
func Phone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Code trims a user-typed confirmation code. Codes are compared case-sensitively,
// so no case folding happens here.
func Code(s string) string {
	return strings.TrimSpace(s)
}
