package normalize

import "strings"

var (
	errorFragments = []string{
		"securityexception",
		"android 10+ restricted",
		"permission denied",
		"error:",
		"not available",
		"unknown",
	}
	errorLiterals = map[string]struct{}{
		"null":        {},
		"none":        {},
		"-1":          {},
		"unavailable": {},
	}
)

// IsErrorString reports whether a collector value carries no data.
func IsErrorString(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	if lower == "" {
		return true
	}
	if _, ok := errorLiterals[lower]; ok {
		return true
	}
	for _, f := range errorFragments {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}

// Clean trims s and returns it unless it is an error string.
func Clean(s string) (string, bool) {
	if IsErrorString(s) {
		return "", false
	}
	return strings.TrimSpace(s), true
}
