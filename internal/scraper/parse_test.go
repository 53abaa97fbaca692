package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBRNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"98,50", 98.50},
		{"1.234,56", 1234.56},
		{"R$ 150,00", 150.00},
		{"R$ 1.050,75", 1050.75},
		{"0,87", 0.87},
		{"-2,5", -2.5},
		{"", 0},
		{"-", 0},
		{"N/A", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parseBRNumber(tc.in), "input %q", tc.in)
	}
}

func TestParseBRPercent(t *testing.T) {
	assert.Equal(t, 12.34, parseBRPercent("12,34%"))
	assert.Equal(t, 8.0, parseBRPercent("8%"))
	assert.Equal(t, 0.0, parseBRPercent(""))
}
