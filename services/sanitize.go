package services

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	ugcPolicy    = bluemonday.UGCPolicy()
)

// SanitizeText strips all markup and surrounding whitespace. Used for chat
// messages, titles and other plain text input. The result is plain text, so
// entities produced by the policy are decoded again; templates escape on output.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// SanitizeRichText keeps safe formatting tags. Used for case descriptions
// and lawyer bios.
func SanitizeRichText(s string) string {
	return strings.TrimSpace(ugcPolicy.Sanitize(s))
}
