package player

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		name     string
		seconds  float64
		expected string
	}{
		{"zero", 0, "00:00"},
		{"one minute five", 65, "01:05"},
		{"truncates fraction", 59.99, "00:59"},
		{"exact hour", 3600, "60:00"},
		{"beyond 99 minutes", 6000, "100:00"},
		{"nan", math.NaN(), "00:00"},
		{"positive infinity", math.Inf(1), "00:00"},
		{"negative", -3, "00:00"},
		{"too large for int64", 1e300, "00:00"},
		{"largest representable", 9.2e18, "153333333333333333:20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatTime(tt.seconds))
		})
	}
}
