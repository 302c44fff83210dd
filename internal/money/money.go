// Package money provides an exact decimal monetary value with cent rounding.
package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits kept at presentation boundaries.
const Places = 2

var hundred = decimal.NewFromInt(100)

// Money represents a non-negative decimal amount. Intermediate values keep full
// precision; Round produces the canonical two-decimal form.
type Money struct {
	d decimal.Decimal
}

// Zero returns a zero amount.
func Zero() Money { return Money{d: decimal.Zero} }

// FromInt constructs Money from a whole number of currency units.
func FromInt(units int64) Money { return Money{d: decimal.NewFromInt(units)} }

// FromDecimal wraps an existing decimal value.
func FromDecimal(d decimal.Decimal) Money { return Money{d: d} }

// Parse reads a decimal string such as "1000" or "249.90".
func Parse(value string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", value, err)
	}
	return Money{d: d}, nil
}

// MustParse behaves like Parse but panics on malformed input. Intended for fixtures and tests.
func MustParse(value string) Money {
	m, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return m
}

// Decimal exposes the underlying decimal value.
func (m Money) Decimal() decimal.Decimal { return m.d }

// Add returns m + o.
func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

// Sub returns m - o, clamped at zero.
func (m Money) Sub(o Money) Money {
	out := m.d.Sub(o.d)
	if out.IsNegative() {
		return Zero()
	}
	return Money{d: out}
}

// Mul multiplies the amount by an integer quantity.
func (m Money) Mul(qty int) Money { return Money{d: m.d.Mul(decimal.NewFromInt(int64(qty)))} }

// Percent returns m × p / 100 at full precision.
func (m Money) Percent(p Percent) Money { return Money{d: m.d.Mul(p.d).Div(hundred)} }

// Min returns the smaller of m and o.
func (m Money) Min(o Money) Money {
	if o.d.LessThan(m.d) {
		return o
	}
	return m
}

// Round rounds half-to-even to cents.
func (m Money) Round() Money { return Money{d: m.d.RoundBank(Places)} }

// Cmp compares m and o returning -1, 0 or 1.
func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

// Equal reports whether both amounts are numerically equal.
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

// LessThan reports whether m < o.
func (m Money) LessThan(o Money) bool { return m.d.LessThan(o.d) }

// GreaterThan reports whether m > o.
func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.d.IsZero() }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.d.IsNegative() }

// String renders the amount rounded to cents, e.g. "486.00".
func (m Money) String() string { return m.d.RoundBank(Places).StringFixed(Places) }

// MarshalJSON encodes the amount as a fixed two-decimal string.
func (m Money) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }

// UnmarshalJSON accepts either a JSON string or a JSON number, parsed textually.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("decode money: %w", err)
	}
	m.d = d
	return nil
}

// Percent is a decimal percentage in the range [0, 100].
type Percent struct {
	d decimal.Decimal
}

// ParsePercent reads a percentage such as "40" or "12.5".
func ParsePercent(value string) (Percent, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return Percent{}, fmt.Errorf("parse percent %q: %w", value, err)
	}
	return Percent{d: d}, nil
}

// MustPercent behaves like ParsePercent but panics on malformed input.
func MustPercent(value string) Percent {
	p, err := ParsePercent(value)
	if err != nil {
		panic(err)
	}
	return p
}

// Valid reports whether the percentage lies within [0, 100].
func (p Percent) Valid() bool {
	return !p.d.IsNegative() && !p.d.GreaterThan(hundred)
}

// IsZero reports whether the percentage is zero.
func (p Percent) IsZero() bool { return p.d.IsZero() }

// String renders the percentage without trailing zeros.
func (p Percent) String() string { return p.d.String() }

// MarshalJSON encodes the percentage as a JSON string.
func (p Percent) MarshalJSON() ([]byte, error) { return json.Marshal(p.d.String()) }

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (p *Percent) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("decode percent: %w", err)
	}
	p.d = d
	return nil
}
