package duration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"zero", 0, "0s"},
		{"seconds", 45 * time.Second, "45s"},
		{"minutes", 30 * time.Minute, "30m"},
		{"hours", 12 * time.Hour, "12h"},
		{"one day", 24 * time.Hour, "1d"},
		{"days", 3 * 24 * time.Hour, "3d"},
		{"one week", 7 * 24 * time.Hour, "1w"},
		{"weeks", 2 * 7 * 24 * time.Hour, "2w"},
		{"weeks and days", 9 * 24 * time.Hour, "1w2d"},
		{"weeks days hours", 9*24*time.Hour + 12*time.Hour, "1w2d12h"},
		{"negative days", -3 * 24 * time.Hour, "-3d"},
		{"one month", 30 * 24 * time.Hour, "1mo"},
		{"two months", 60 * 24 * time.Hour, "2mo"},
		{"month and week", 37 * 24 * time.Hour, "1mo1w"},
		{"one year", 365 * 24 * time.Hour, "1y"},
		{"year and month", (365 + 30) * 24 * time.Hour, "1y1mo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.duration)
			assert.Equal(t, tt.expected, result)
		})
	}
}
