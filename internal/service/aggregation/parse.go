package aggregation

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	floatPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
)

// ParseAmount reads the leading decimal number of value, ignoring trailing
// text ("12.5 USD" is 12.5). It returns NaN when no number is present.
func ParseAmount(value string) float64 {
	match := floatPrefix.FindString(strings.TrimSpace(value))
	if match == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// ParseQuantity reads the leading integer of value ("3.9" is 3). It returns
// NaN when no integer is present.
func ParseQuantity(value string) float64 {
	match := intPrefix.FindString(strings.TrimSpace(value))
	if match == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// AmountOrZero is ParseAmount with NaN mapped to zero.
func AmountOrZero(value string) float64 {
	v := ParseAmount(value)
	if math.IsNaN(v) {
		return 0
	}
	return v
}
