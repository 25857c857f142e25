// Package money converts between human-entered decimal strings and integer
// minor currency units (centavos). All storage and arithmetic use minor units
// so money math never touches floating point.
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const minorPerUnit = 100

// Decode parses a decimal string with a comma separator ("12,50") into minor
// units (1250). Malformed input yields 0 rather than an error: callers keep
// line totals computable while the operator is still typing.
func Decode(text string) int64 {
	value, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", "."), 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(value * minorPerUnit))
}

// Format renders minor units for display: Format(1250) == "R$ 12,50".
// Negative values keep the historical rendering, e.g. Format(-150) == "R$ -1,50"
// (truncating division for the integer part, absolute remainder for the cents).
func Format(minor int64) string {
	cents := minor % minorPerUnit
	if cents < 0 {
		cents = -cents
	}
	return fmt.Sprintf("R$ %d,%02d", minor/minorPerUnit, cents)
}

// ValidateDecimal reports whether text is empty or parses as a decimal after
// comma substitution. Empty is accepted so a cleared field never flags red.
func ValidateDecimal(text string) bool {
	if text == "" {
		return true
	}
	_, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", "."), 64)
	return err == nil
}

// ValidateDecimalRange is ValidateDecimal plus an inclusive bounds check.
func ValidateDecimalRange(text string, min, max float64) bool {
	if text == "" {
		return true
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", "."), 64)
	if err != nil {
		return false
	}
	return value >= min && value <= max
}

// ValidateInteger reports whether text is empty or parses as a 32-bit integer.
func ValidateInteger(text string) bool {
	if text == "" {
		return true
	}
	_, err := strconv.ParseInt(text, 10, 32)
	return err == nil
}
