// Package dump parses native-tier probe dumps: banner-delimited sections
// holding property lines, probe blocks and line-tagged fields.
package dump

import (
	"bufio"
	"strings"
)

const bannerMarker = "==="

// Section is one banner-delimited block of a dump.
type Section struct {
	Title string
	Body  string
}

// Split cuts raw into sections on "=== Title ===" banner lines. Lines
// before the first banner are discarded and sections with an empty body
// are dropped. Degenerate input yields an empty slice.
func Split(raw string) []Section {
	sections := []Section{}
	if strings.TrimSpace(raw) == "" {
		return sections
	}

	var (
		title  string
		body   strings.Builder
		inside bool
	)

	flush := func() {
		if !inside {
			return
		}
		if b := strings.TrimSpace(body.String()); b != "" {
			sections = append(sections, Section{Title: title, Body: body.String()})
		}
		body.Reset()
	}

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if t, ok := bannerTitle(line); ok {
			flush()
			title = t
			inside = true
			continue
		}
		if !inside {
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	flush()

	return sections
}

func bannerTitle(line string) (string, bool) {
	t := strings.TrimSpace(line)
	if len(t) < 2*len(bannerMarker) || !strings.HasPrefix(t, bannerMarker) || !strings.HasSuffix(t, bannerMarker) {
		return "", false
	}
	t = strings.TrimPrefix(t, bannerMarker)
	t = strings.TrimSuffix(t, bannerMarker)
	return strings.TrimSpace(t), true
}

func lines(body string) []string {
	return strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
}
