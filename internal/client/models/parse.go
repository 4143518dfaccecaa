package models

import (
	"strconv"
	"strings"
)

// ParseStock converts free-text stock input to a non-negative integer.
// Unparseable or negative input yields 0; the operation is never failed
// over a bad quantity.
func ParseStock(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ParsePrice converts free-text price input to a non-negative decimal.
// Unparseable or negative input yields 0.
func ParsePrice(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}
