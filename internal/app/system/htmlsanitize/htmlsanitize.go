// Package htmlsanitize strips markup from user-supplied free text before it is stored.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every element and attribute. Policies are safe for concurrent use.
var strict = bluemonday.StrictPolicy()

// Text returns s with all HTML removed, entities decoded and surrounding
// whitespace trimmed. The result is plain text; renderers must still escape it.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// TextPtr applies Text to an optional value. Empty results become nil.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	out := Text(*s)
	if out == "" {
		return nil
	}
	return &out
}
