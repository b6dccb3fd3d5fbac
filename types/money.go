// Package types provides value types shared across the engine.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Cents is a monetary value in the smallest currency unit.
// All arithmetic is integer-only; conversion to major units happens only
// at display boundaries through Major.
//
// Examples:
//   - Cents(4900) = 49.00
//   - Cents(-1100) = -11.00 (overpaid by eleven)
type Cents int64

// centsExp is the decimal exponent between cents and major units.
const centsExp = -2

// ErrOutOfRange is returned when an amount does not fit into Cents.
var ErrOutOfRange = errors.New("types: amount out of range")

var (
	minCents = decimal.NewFromInt(math.MinInt64)
	maxCents = decimal.NewFromInt(math.MaxInt64)
)

// Add adds two values.
func (c Cents) Add(other Cents) Cents { return c + other }

// Subtract subtracts another value.
func (c Cents) Subtract(other Cents) Cents { return c - other }

// Multiply multiplies the value by a quantity.
func (c Cents) Multiply(qty int64) Cents { return c * Cents(qty) }

// Negate returns the negative of the value.
func (c Cents) Negate() Cents { return -c }

// Abs returns the absolute value.
func (c Cents) Abs() Cents {
	if c < 0 {
		return -c
	}
	return c
}

// IsZero returns true if the amount is zero.
func (c Cents) IsZero() bool { return c == 0 }

// IsPositive returns true if the amount is greater than zero.
func (c Cents) IsPositive() bool { return c > 0 }

// IsNegative returns true if the amount is less than zero.
func (c Cents) IsNegative() bool { return c < 0 }

// Int64 returns the raw number of cents.
func (c Cents) Int64() int64 { return int64(c) }

// Major returns the value in major units (cents / 100) as an exact decimal.
// The conversion never loses precision: FromMajor(c.Major()) == c.
func (c Cents) Major() decimal.Decimal {
	return decimal.New(int64(c), centsExp)
}

// FromMajor converts a major-unit amount into cents. Fractions of a cent are
// rounded half away from zero. Amounts outside the Cents range are not
// representable; use ParseMajor or FromDecimal when the input is untrusted.
func FromMajor(d decimal.Decimal) Cents {
	return Cents(d.Shift(-centsExp).Round(0).IntPart())
}

// ParseMajor is FromMajor with a range check.
func ParseMajor(d decimal.Decimal) (Cents, error) {
	return FromDecimal(d.Shift(-centsExp))
}

// FromDecimal rounds a cent amount half away from zero and returns
// ErrOutOfRange when the result does not fit into int64.
func FromDecimal(d decimal.Decimal) (Cents, error) {
	r := d.Round(0)
	if r.LessThan(minCents) || r.GreaterThan(maxCents) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, r)
	}
	return Cents(r.IntPart()), nil
}

// FromMajorFloat converts a float major-unit amount into cents.
func FromMajorFloat(f float64) Cents {
	return FromMajor(decimal.NewFromFloat(f))
}

// FromFloat rounds a float cent amount to whole cents, half away from zero.
func FromFloat(f float64) Cents {
	return Cents(decimal.NewFromFloat(f).Round(0).IntPart())
}

// FormatMajor returns the major unit string without currency symbol,
// e.g. "49.00" for Cents(4900).
func (c Cents) FormatMajor() string {
	isNegative := c < 0
	abs := int64(c.Abs())

	result := fmt.Sprintf("%d.%02d", abs/100, abs%100)
	if isNegative {
		return "-" + result
	}
	return result
}

// Format returns a human-readable string with currency symbol.
// Examples: "€49.00", "$12.50", "CHF 3.00".
func (c Cents) Format(currency string) string {
	return currencySymbol(currency) + c.FormatMajor()
}

// String implements fmt.Stringer without a currency symbol.
func (c Cents) String() string {
	return c.FormatMajor()
}

// MarshalJSON implements json.Marshaler.
func (c Cents) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Cents   int64  `json:"cents"`
		Display string `json:"display"`
	}{
		Cents:   int64(c),
		Display: c.FormatMajor(),
	})
}

// UnmarshalJSON accepts either the object produced by MarshalJSON or a bare
// integer number of cents.
func (c *Cents) UnmarshalJSON(data []byte) error {
	var raw int64
	if err := json.Unmarshal(data, &raw); err == nil {
		*c = Cents(raw)
		return nil
	}
	var obj struct {
		Cents int64 `json:"cents"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("types: decode cents: %w", err)
	}
	*c = Cents(obj.Cents)
	return nil
}

// currencySymbol returns the symbol for a currency code.
func currencySymbol(currency string) string {
	symbols := map[string]string{
		"usd": "$",
		"eur": "€",
		"gbp": "£",
		"cad": "C$",
		"aud": "A$",
		"chf": "CHF ",
		"sek": "kr ",
		"nzd": "NZ$",
	}
	if sym, ok := symbols[strings.ToLower(currency)]; ok {
		return sym
	}
	return strings.ToUpper(currency) + " "
}

// Sum calculates the sum of multiple values.
func Sum(values ...Cents) Cents {
	var result Cents
	for _, v := range values {
		result += v
	}
	return result
}
