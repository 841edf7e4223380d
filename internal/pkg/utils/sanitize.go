package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy  = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

// SanitizeHTML keeps the safe subset of user supplied markup (links,
// lists, emphasis, headings) and strips scripts, styles and event handlers.
func SanitizeHTML(s string) string {
	return strings.TrimSpace(richPolicy.Sanitize(s))
}

// SanitizeText strips every tag. Entities produced by the policy are
// decoded again so the stored value stays plain text.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(plainPolicy.Sanitize(s)))
}
