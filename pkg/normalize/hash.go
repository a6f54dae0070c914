// Package normalize canonicalizes volatile probe values into stable forms
// suitable for hashing and rule evaluation.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SHA256Hex returns the lowercase hex digest of s, or "" for empty input.
func SHA256Hex(s string) string {
	if s == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ListString renders items as "[a, b, c]".
func ListString(items []string) string {
	return "[" + strings.Join(items, ", ") + "]"
}
