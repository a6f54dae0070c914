package dump

import (
	"strconv"
	"strings"
)

const (
	tagPath             = "Path:"
	tagExitCode         = "Exit Code:"
	tagAccessible       = "Accessible:"
	tagContent          = "Content:"
	tagContentTruncated = "Content (truncated):"
	contentTerminator   = "---"
	emptyContent        = "[EMPTY]"
)

// ProbeRecord is the outcome of one file or property probe.
type ProbeRecord struct {
	Path       string `json:"path"`
	Content    string `json:"content,omitempty"`
	ExitCode   int    `json:"exit_code"`
	Accessible bool   `json:"accessible"`
}

// Probes maps probe paths to their records.
type Probes map[string]ProbeRecord

// Lookup returns the record for path.
func (p Probes) Lookup(path string) (ProbeRecord, bool) {
	if p == nil {
		return ProbeRecord{}, false
	}
	r, ok := p[path]
	return r, ok
}

// ParseProbes runs the probe-block state machine over a section body.
func ParseProbes(body string) Probes {
	probes := Probes{}
	mergeProbes(probes, body)
	return probes
}

type probeParser struct {
	out       Probes
	current   *ProbeRecord
	content   strings.Builder
	inContent bool
}

func mergeProbes(dst Probes, body string) {
	p := &probeParser{out: dst}
	for _, raw := range lines(body) {
		p.feed(raw)
	}
	p.finalize()
}

func (p *probeParser) feed(raw string) {
	line := strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(line, tagPath):
		p.finalize()
		p.current = &ProbeRecord{
			Path:     strings.TrimSpace(strings.TrimPrefix(line, tagPath)),
			ExitCode: -1,
		}

	case p.current == nil:
		return

	case strings.HasPrefix(line, tagExitCode):
		p.inContent = false
		if n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, tagExitCode))); err == nil {
			p.current.ExitCode = n
		}

	case strings.HasPrefix(line, tagAccessible):
		p.inContent = false
		p.current.Accessible = strings.Contains(line[len(tagAccessible):], "true")

	case strings.HasPrefix(line, tagContentTruncated), strings.HasPrefix(line, tagContent):
		rest := strings.TrimPrefix(line, tagContentTruncated)
		if rest == line {
			rest = strings.TrimPrefix(line, tagContent)
		}
		rest = strings.TrimSpace(rest)
		p.inContent = true
		if rest != "" && rest != emptyContent {
			p.content.WriteString(rest)
		}

	case line == contentTerminator:
		p.inContent = false

	case p.inContent:
		if p.content.Len() > 0 {
			p.content.WriteByte('\n')
		}
		p.content.WriteString(raw)
	}
}

func (p *probeParser) finalize() {
	if p.current != nil && p.current.Path != "" {
		p.current.Content = strings.TrimSpace(p.content.String())
		p.out[p.current.Path] = *p.current
	}
	p.current = nil
	p.content.Reset()
	p.inContent = false
}
