package normalize

import (
	"strconv"
	"strings"
)

// Meminfo is the structural summary of /proc/meminfo.
type Meminfo struct {
	MemTotalKB int64
	HasSwap    bool
	FieldCount int
}

// ParseMeminfo counts fields and reads MemTotal and SwapTotal.
func ParseMeminfo(content string) Meminfo {
	var m Meminfo
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, ":") {
			continue
		}
		m.FieldCount++

		key, value, _ := strings.Cut(line, ":")
		switch strings.TrimSpace(key) {
		case "MemTotal":
			m.MemTotalKB = kilobytes(value)
		case "SwapTotal":
			m.HasSwap = kilobytes(value) > 0
		}
	}
	return m
}

func kilobytes(v string) int64 {
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
