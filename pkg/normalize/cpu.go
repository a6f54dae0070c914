package normalize

import (
	"sort"
	"strings"
)

// CPUInfo is the hardware-stable subset of /proc/cpuinfo.
type CPUInfo struct {
	Parts    []string
	Features string
	Hardware string
}

// ParseCPUInfo collects distinct "CPU part" values, the first "Features"
// line and the last "Hardware" line.
func ParseCPUInfo(content string) CPUInfo {
	var info CPUInfo
	seen := map[string]struct{}{}

	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "CPU part":
			if value == "" {
				continue
			}
			if _, dup := seen[value]; !dup {
				seen[value] = struct{}{}
				info.Parts = append(info.Parts, value)
			}
		case "Features":
			if info.Features == "" {
				info.Features = value
			}
		case "Hardware":
			info.Hardware = value
		}
	}

	sort.Strings(info.Parts)
	return info
}

// StructureHash hashes the sorted part list joined with the features line.
func (c CPUInfo) StructureHash() string {
	return SHA256Hex(ListString(c.Parts) + "|" + c.Features)
}

// FeaturesHash hashes the features line alone.
func (c CPUInfo) FeaturesHash() string {
	return SHA256Hex(c.Features)
}
