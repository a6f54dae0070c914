// Package stringutil holds small string helpers for terminal output.
package stringutil

import "strings"

// Ellipsis flattens s onto one line and shortens it to at most maxLength
// bytes, ending in "..." when truncated. With maxLength <= 3 the result
// is cut without an ellipsis; a negative maxLength yields "".
func Ellipsis(s string, maxLength int) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")

	switch {
	case maxLength < 0:
		return ""
	case len(s) <= maxLength:
		return s
	case maxLength <= 3:
		return s[:maxLength]
	default:
		return s[:maxLength-3] + "..."
	}
}
