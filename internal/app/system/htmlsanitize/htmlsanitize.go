// Package htmlsanitize strips markup from user-entered text.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// maxDecode bounds how many layers of entity encoding are peeled off.
const maxDecode = 4

// PlainText removes every tag from s and trims surrounding whitespace.
// Entities are decoded before sanitizing, so escaped markup such as
// "&lt;b&gt;" is stripped like the tag it spells. Task titles,
// descriptions, and group names are stored as plain text.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	for i := 0; i < maxDecode; i++ {
		u := html.UnescapeString(s)
		if u == s {
			break
		}
		s = u
	}
	// The sanitizer escapes the text it keeps; what is left is tag free.
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
