// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents. Parsing goes through decimal so that
// "12.345" rounds half-up to 1235 cents instead of drifting through float64.
package core

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

// Amounts above maxAmount units are rejected, which keeps any realistic
// sum of records inside int64 cents.
var maxAmount = decimal.New(1, 12)

// Exponents outside this range are rejected before any rescaling.
const (
	minAmountExponent = -30
	maxAmountExponent = 18
)

// ParseMoney converts a decimal string to Money with half-up rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Returns ErrInvalidAmount for empty, signed, malformed, zero or
// out-of-range input.
//
// Examples:
//
//	ParseMoney("12.34")  -> 1234 cents
//	ParseMoney("12,34")  -> 1234 cents
//	ParseMoney("12.345") -> 1235 cents
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	m, ok := fromDecimal(d)
	if !ok || m.Cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// CoerceMoney converts a loosely typed amount (as it may arrive from a
// JSON transport) to Money. Anything non-finite, unparsable or out of range
// becomes zero; it never fails.
func CoerceMoney(v any) Money {
	var d decimal.Decimal
	switch x := v.(type) {
	case Money:
		return x
	case int:
		d = decimal.NewFromInt(int64(x))
	case int64:
		d = decimal.NewFromInt(x)
	case float32:
		return CoerceMoney(float64(x))
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Money{}
		}
		d = decimal.NewFromFloat(x)
	case json.Number:
		return CoerceMoney(x.String())
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", ".")
		parsed, err := decimal.NewFromString(s)
		if err != nil {
			return Money{}
		}
		d = parsed
	default:
		return Money{}
	}
	m, ok := fromDecimal(d)
	if !ok {
		return Money{}
	}
	return m
}

func fromDecimal(d decimal.Decimal) (Money, bool) {
	if e := d.Exponent(); e < minAmountExponent || e > maxAmountExponent {
		return Money{}, false
	}
	if d.Abs().GreaterThan(maxAmount) {
		return Money{}, false
	}
	return Money{Cents: d.Shift(2).Round(0).IntPart()}, true
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns m+o, saturating at the int64 bounds.
func (m Money) Add(o Money) Money {
	switch {
	case o.Cents > 0 && m.Cents > math.MaxInt64-o.Cents:
		return Money{Cents: math.MaxInt64}
	case o.Cents < 0 && m.Cents < math.MinInt64-o.Cents:
		return Money{Cents: math.MinInt64}
	}
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m-o.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// Decimal returns the amount in currency units as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Units returns the amount in currency units as a float64 for display.
// Use cents for calculations.
func (m Money) Units() float64 {
	return m.Decimal().InexactFloat64()
}

// String formats the amount with two decimals, e.g. "12.30".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON is lenient: numbers and numeric strings are accepted,
// anything else decodes to zero.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		*m = Money{}
		return nil
	}
	*m = CoerceMoney(raw)
	return nil
}
