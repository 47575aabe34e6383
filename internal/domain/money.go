package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Cents is a monetary amount in integer minor units. Keeping money as
// an integer avoids binary floating-point drift across repeated billing
// cycles.
type Cents int64

// ParseAmount converts a decimal string such as "10.00" into cents.
// At most two fractional digits are accepted; negative amounts are not.
func ParseAmount(raw string) (Cents, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(raw, "-") {
		return 0, fmt.Errorf("negative amount %q", raw)
	}

	whole, frac, _ := strings.Cut(raw, ".")
	units, err := parseDigits(whole)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}

	var cents int64
	switch len(frac) {
	case 0:
	case 1:
		frac += "0"
		fallthrough
	case 2:
		cents, err = parseDigits(frac)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q", raw)
		}
	default:
		return 0, fmt.Errorf("amount %q has more than two fractional digits", raw)
	}

	return Cents(units*100 + cents), nil
}

// parseDigits parses a run of ASCII digits. Unlike strconv.ParseInt it
// rejects sign characters, so "12.-3" cannot slip through as a valid
// amount.
func parseDigits(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty digit run")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("unexpected character %q", r)
		}
	}
	return strconv.ParseInt(s, 10, 64)
}

// String renders the amount as a decimal with two fractional digits.
func (c Cents) String() string {
	return fmt.Sprintf("%d.%02d", c/100, c%100)
}
