package normalize

import (
	"regexp"
	"strings"
)

var drmIDPattern = regexp.MustCompile(`MediaDrm Device Unique ID:\s*([a-fA-F0-9]+)`)

// ExtractDRMID returns the lowercased Widevine device id from a DRM dump.
func ExtractDRMID(info string) string {
	return strings.ToLower(firstGroup(drmIDPattern, info))
}
