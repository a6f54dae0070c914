package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

const (
	BootIDUUID    = "UUID"
	BootIDNonUUID = "NON_UUID"

	EntropyLow    = "LOW"
	EntropyMedium = "MEDIUM"
	EntropyHigh   = "HIGH"
)

var (
	bootIDPattern        = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	kernelVersionPattern = regexp.MustCompile(`^(\d+)\.(\d+)(?:\.(\d+))?`)
)

// BootIDFormat classifies a boot_id value as UUID or NON_UUID.
func BootIDFormat(content string) string {
	if bootIDPattern.MatchString(strings.TrimSpace(content)) {
		return BootIDUUID
	}
	return BootIDNonUUID
}

// EntropyLevel buckets entropy_avail into LOW, MEDIUM or HIGH.
func EntropyLevel(content string) (string, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(content))
	if err != nil {
		return "", false
	}
	switch {
	case n < 100:
		return EntropyLow, true
	case n < 1000:
		return EntropyMedium, true
	default:
		return EntropyHigh, true
	}
}

// KernelVersion extracts the canonical major.minor.patch from a uname
// release such as "4.19.157-perf+".
func KernelVersion(release string) (string, bool) {
	m := kernelVersionPattern.FindString(strings.TrimSpace(release))
	if m == "" {
		return "", false
	}
	v, err := semver.NewVersion(m)
	if err != nil {
		return "", false
	}
	return v.String(), true
}
