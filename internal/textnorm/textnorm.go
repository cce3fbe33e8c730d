// Package textnorm derives the two text forms of a failure message: a
// normalized form used as clustering input and a simplified form shown to
// users.
package textnorm

import (
	"regexp"
	"strings"
)

const (
	// StackTraceMarker starts the part of a message dropped by Simplify.
	StackTraceMarker = "Stacktrace:"

	// Ellipsis is appended to truncated simplified messages.
	Ellipsis = "..."

	// DefaultMaxLen is the simplified message length limit.
	DefaultMaxLen = 300
)

var nonWordPattern = regexp.MustCompile(`[^a-z0-9\s]`)

// collapseSpace joins the whitespace separated fields of text with single
// spaces, which also trims both ends.
func collapseSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Normalize lowercases text, replaces every character other than a-z, 0-9
// and whitespace with a space, collapses whitespace runs and trims.
// The result matches [a-z0-9 ]* without doubled or edge spaces.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = nonWordPattern.ReplaceAllString(text, " ")
	return collapseSpace(text)
}

// Simplify removes everything from the first StackTraceMarker onward,
// collapses whitespace and trims. Results longer than maxLen characters are
// cut to maxLen and suffixed with Ellipsis. A maxLen <= 0 means DefaultMaxLen.
func Simplify(text string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}

	if i := strings.Index(text, StackTraceMarker); i >= 0 {
		text = text[:i]
	}
	text = collapseSpace(text)

	runes := []rune(text)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + Ellipsis
	}
	return text
}
