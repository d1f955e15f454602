// Package money represents currency amounts as integer cents.
//
// Amounts travel over JSON as plain numbers with at most two decimals
// ("preco": 25.00). Decoding goes through shopspring/decimal so values such
// as 0.1 or 19.99 map to exact cents.
package money

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Cents is an amount in hundredths of the currency unit.
type Cents int64

// MaxAmount is the largest price a single item may have: R$ 1,000,000.00.
// Any count of such items that fits in memory sums without overflow.
const MaxAmount Cents = 100_000_000

var (
	// ErrSubCent is returned for amounts with more than two decimals.
	ErrSubCent = errors.New("money: amount has more than two decimal places")
	// ErrOverflow is returned when a sum does not fit in Cents.
	ErrOverflow = errors.New("money: amount out of range")
)

// Parse reads a decimal string such as "25", "25.5" or "25.00". Amounts
// that are not a whole number of cents ("25.005") are rejected, so what
// was parsed always prints back unchanged.
func Parse(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("money: parse %q: %w", s, err)
	}
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("%w: %s", ErrSubCent, s)
	}
	if cents.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || cents.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, fmt.Errorf("%w: %s", ErrOverflow, s)
	}
	return Cents(cents.IntPart()), nil
}

// Decimal returns the amount in currency units.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// Float64 returns the amount in currency units. Use only for display or
// interop; arithmetic stays in Cents.
func (c Cents) Float64() float64 {
	f, _ := c.Decimal().Float64()
	return f
}

// IsNegative reports whether c < 0.
func (c Cents) IsNegative() bool { return c < 0 }

// String formats the amount with two decimals, e.g. "25.00".
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// BRL formats the amount for display, e.g. "R$ 25.00".
func (c Cents) BRL() string {
	return "R$ " + c.String()
}

// Add returns c + d, or ErrOverflow when the result does not fit.
func (c Cents) Add(d Cents) (Cents, error) {
	sum := c + d
	if (d > 0 && sum < c) || (d < 0 && sum > c) {
		return 0, ErrOverflow
	}
	return sum, nil
}

// MarshalJSON encodes the amount as a JSON number with two decimals.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON accepts a JSON number only. Strings, null and other types
// are rejected.
func (c *Cents) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || !(data[0] == '-' || (data[0] >= '0' && data[0] <= '9')) {
		return fmt.Errorf("money: expected JSON number, got %s", data)
	}
	v, err := Parse(string(data))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
