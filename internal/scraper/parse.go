package scraper

import (
	"regexp"
	"strconv"
	"strings"
)

var nonNumeric = regexp.MustCompile(`[^0-9,.\-]`)

// parseBRNumber parses a pt-BR formatted number such as "1.234,56" or
// "R$ 98,50". Returns 0 for empty or unparseable input.
func parseBRNumber(text string) float64 {
	cleaned := nonNumeric.ReplaceAllString(strings.TrimSpace(text), "")
	if cleaned == "" || cleaned == "-" {
		return 0
	}

	// Thousands separator is "." and the decimal separator is ",".
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return value
}

// parseBRPercent parses a percentage like "12,34%" into 12.34.
func parseBRPercent(text string) float64 {
	return parseBRNumber(strings.TrimSuffix(strings.TrimSpace(text), "%"))
}
