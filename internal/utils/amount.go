package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAmount reads a display amount such as "£1,500.00", "$ 2,250" or "2k".
func ParseAmount(s string) (float64, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '£', '$', '€', ',', ' ':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	clean = strings.TrimSuffix(strings.TrimSuffix(clean, "pp"), "pph")
	mult := 1.0
	if strings.HasSuffix(strings.ToLower(clean), "k") {
		mult = 1000
		clean = clean[:len(clean)-1]
	}
	if clean == "" {
		return 0, fmt.Errorf("empty amount %q", s)
	}
	n, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return n * mult, nil
}

// FormatNumber renders v in its shortest exact form: 1500, 2500.5.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
