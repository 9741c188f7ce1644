// Package sanitize strips markup from user-supplied text before it is stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text removes every HTML element, keeps the text content and collapses
// surrounding whitespace. Script and style bodies are dropped entirely.
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Optional applies Text to a nullable value. Blank results become nil.
func Optional(s *string) *string {
	if s == nil {
		return nil
	}
	clean := Text(*s)
	if clean == "" {
		return nil
	}
	return &clean
}
