package stringutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEllipsis(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		maxLength int
		expected  string
	}{
		{"fits", "pixel-7.txt", 20, "pixel-7.txt"},
		{"truncated", "collector-upload-2024-11-03-lab-7.dump", 16, "collector-upl..."},
		{"too short for ellipsis", "abcdefg", 3, "abc"},
		{"multi-line report", "  ⚠ risks\r\n[HIGH] root\n", 40, "⚠ risks [HIGH] root"},
		{"negative", "abc", -1, ""},
		{"empty", "", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Ellipsis(tt.input, tt.maxLength))
		})
	}
}
