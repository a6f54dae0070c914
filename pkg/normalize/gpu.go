package normalize

import (
	"regexp"
	"strings"
)

var (
	rendererPattern = regexp.MustCompile(`Renderer:\s*([^|]+)`)
	vendorPattern   = regexp.MustCompile(`Vendor:\s*([^|]+)`)

	maliPattern    = regexp.MustCompile(`(Mali-[GT]\d+)`)
	adrenoPattern  = regexp.MustCompile(`Adreno\s*(?:\(TM\))?\s*(\d+)`)
	powerVRPattern = regexp.MustCompile(`PowerVR\s+(?:\w+\s+)?(\w+\d+)`)
)

// ExtractRenderer returns the raw renderer string from a GL info dump.
func ExtractRenderer(info string) string {
	return firstGroup(rendererPattern, info)
}

// ExtractVendor returns the GL vendor string.
func ExtractVendor(info string) string {
	return firstGroup(vendorPattern, info)
}

// GPUModel strips driver and revision suffixes from a renderer string.
func GPUModel(renderer string) string {
	renderer = strings.TrimSpace(renderer)
	if renderer == "" {
		return ""
	}
	if m := maliPattern.FindStringSubmatch(renderer); m != nil {
		return m[1]
	}
	if m := adrenoPattern.FindStringSubmatch(renderer); m != nil {
		return "Adreno " + m[1]
	}
	if m := powerVRPattern.FindStringSubmatch(renderer); m != nil {
		return "PowerVR " + m[1]
	}

	fields := strings.Fields(renderer)
	if len(fields) > 2 {
		fields = fields[:2]
	}
	return strings.Join(fields, " ")
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
