package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string in major units to minor units.
// Use for gateway payloads that send prices as strings ("99.50" = ₹99.50).
// Returns 0 for empty or malformed input.
// Examples: "99.00" → 9900, "1234.56" → 123456, "" → 0
func ParseAmount(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.Mul(minorPerUnit).Round(0).IntPart()
}

// FromMajor converts a major-unit float (JSON number) to minor units.
func FromMajor(f float64) int64 {
	return decimal.NewFromFloat(f).Mul(minorPerUnit).Round(0).IntPart()
}

// ToMajor converts minor units to a major-unit decimal for wire encoding.
func ToMajor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// FormatAmount renders minor units as a two-decimal major amount: 27000 → "270.00".
func FormatAmount(minor int64) string {
	return ToMajor(minor).StringFixed(2)
}
