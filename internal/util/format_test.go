package util

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		input    int
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{464004, "464,004"},
		{1234567, "1,234,567"},
		{-1500, "-1,500"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatNumber(tt.input))
	}
}

func TestFormatWatts(t *testing.T) {
	assert.Equal(t, "648 W", FormatWatts(647.6))
	assert.Equal(t, "544,576 W", FormatWatts(544576.2))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "30.00", FormatFloat(30))
	assert.Equal(t, "1,234.57", FormatFloat(1234.567))
	assert.Equal(t, "-0.50", FormatFloat(-0.5))
	assert.Equal(t, "-2,000.10", FormatFloat(-2000.1))
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "10.000s", FormatSeconds(10*time.Second))
	assert.Equal(t, "0.250s", FormatSeconds(250*time.Millisecond))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "+12.5%", FormatPercent(0.125))
	assert.Equal(t, "-50.0%", FormatPercent(-0.5))
	assert.Equal(t, "n/a", FormatPercent(math.Inf(1)))
	assert.Equal(t, "n/a", FormatPercent(math.NaN()))
}
