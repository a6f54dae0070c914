package normalize

import (
	"regexp"
	"sort"
	"strings"
)

var mountIDPrefix = regexp.MustCompile(`^\d+\s+\d+\s+\d+:\d+\s+`)

// MountsHash hashes a mountinfo table independently of mount ids, device
// numbers and line order.
func MountsHash(content string) string {
	var entries []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		entries = append(entries, mountIDPrefix.ReplaceAllString(line, ""))
	}
	if len(entries) == 0 {
		return ""
	}
	sort.Strings(entries)
	return SHA256Hex(strings.Join(entries, "\n"))
}
