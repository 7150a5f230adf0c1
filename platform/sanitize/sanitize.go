// Package sanitize cleans free-text lead input before it is persisted.
// Contact names, firm names, qualification answers and stored site copy all
// pass through here; the admin dashboard renders these values, so markup is
// stripped at write time rather than trusted to output escaping alone.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// StripHTML removes all HTML tags from a string. Common entities are decoded
// and the result stripped again so an encoded tag cannot survive one pass.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text prepares a user-supplied text field for storage: HTML is stripped and
// whitespace runs collapse to single spaces. Pasted names and firm
// differentiators often arrive with stray newlines.
func Text(s string) string {
	return whitespaceRegex.ReplaceAllString(StripHTML(s), " ")
}
