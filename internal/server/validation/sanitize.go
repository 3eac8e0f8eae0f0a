package validation

import (
	"regexp"
	"strings"
)

var (
	scriptBlock   = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	jsScheme      = regexp.MustCompile(`(?i)javascript:`)
	inlineHandler = regexp.MustCompile(`(?i)\bon\w+\s*=`)
)

// Sanitize strips <script> blocks, javascript: URLs and inline on*= event
// handlers from s.
func Sanitize(s string) string {
	s = scriptBlock.ReplaceAllString(s, "")
	s = jsScheme.ReplaceAllString(s, "")
	return inlineHandler.ReplaceAllString(s, "")
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
