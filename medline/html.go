package medline

import (
	"html"
	"regexp"
	"strings"
)

var tagRE = regexp.MustCompile(`<[^>]+>`)

// stripHTML decodes HTML entities in text and removes HTML tags.
// Entities are decoded first: the web service escapes markup embedded in
// content fields, and those tags must be stripped too.
func stripHTML(text string) string {
	if text == "" {
		return text
	}
	text = html.UnescapeString(text)
	text = tagRE.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
