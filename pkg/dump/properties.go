package dump

import "strings"

const propertySeparator = " = "

// ParseProperties extracts "key = value" lines from a property section.
// The first " = " separates key from value. Blank lines, banner remnants
// and lines without a separator are skipped; absent values are not stored.
func ParseProperties(body string) Properties {
	props := Properties{}
	mergeProperties(props, body)
	return props
}

func mergeProperties(dst Properties, body string) {
	for _, line := range lines(body) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, bannerMarker) {
			continue
		}

		key, raw, ok := strings.Cut(line, propertySeparator)
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}

		if v := ParseValue(raw); v.Present() {
			dst[key] = v
		}
	}
}
