package util

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var currencyPattern = regexp.MustCompile(`[€$£]`)

// ParsePrice turns a supplier price cell into a float. Currency symbols and
// whitespace are stripped; "1.234,56" follows the European convention where
// the dot separates thousands and the comma is the decimal mark. Anything
// unparseable (or negative) comes back as 0, never an error.
func ParsePrice(input string) float64 {
	s := strings.ReplaceAll(input, " ", " ")
	s = currencyPattern.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return 0
	}

	hasDot := strings.Contains(s, ".")
	commas := strings.Count(s, ",")
	switch {
	case hasDot && commas > 0:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case commas == 1:
		s = strings.ReplaceAll(s, ",", ".")
	case commas > 1:
		s = strings.ReplaceAll(s, ",", "")
	}

	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}

// Round2 rounds to two decimals for presentation; internal math keeps full
// precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
