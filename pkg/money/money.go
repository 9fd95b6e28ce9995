// Package money implements the cent-based currency arithmetic shared by the
// checkout packages. Every operation rounds through whole cents so repeated
// additions of fractional prices never drift.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor units (cents).
type Money int64

var hundred = decimal.NewFromInt(100)

// Zero is the additive identity.
const Zero Money = 0

// Round converts a currency value to Money, rounding half away from zero at the cent.
func Round(value float64) Money {
	return fromDecimal(decimal.NewFromFloat(value))
}

// FromCents wraps a raw cent amount.
func FromCents(cents int64) Money {
	return Money(cents)
}

// Parse reads a decimal string such as "19.99".
func Parse(value string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("money: parse %q: %w", value, err)
	}
	return fromDecimal(d), nil
}

func fromDecimal(d decimal.Decimal) Money {
	return Money(d.Mul(hundred).Round(0).IntPart())
}

// Cents returns the amount in minor units.
func (m Money) Cents() int64 {
	return int64(m)
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// Float64 returns the amount in currency units.
func (m Money) Float64() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

func (m Money) Add(other Money) Money {
	return m + other
}

func (m Money) Sub(other Money) Money {
	return m - other
}

// MulScalar multiplies by factor and rounds to the cent.
func (m Money) MulScalar(factor float64) Money {
	return fromDecimal(m.Decimal().Mul(decimal.NewFromFloat(factor)))
}

// MulInt multiplies by an integer quantity.
func (m Money) MulInt(qty int) Money {
	return m * Money(qty)
}

// DivideBy returns round(m / n). Splitting a price this way can leave up to
// one cent per extra part unaccounted for; callers sum the parts as-is.
func (m Money) DivideBy(n int) Money {
	if n <= 1 {
		return m
	}
	return fromDecimal(m.Decimal().Div(decimal.NewFromInt(int64(n))))
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Sum adds all amounts.
func Sum(values ...Money) Money {
	var total Money
	for _, v := range values {
		total += v
	}
	return total
}

// MarshalJSON encodes the amount as a number with two fraction digits.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if raw == "null" {
		*m = 0
		return nil
	}
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
