package quant

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceMicros represents a rupee price multiplied by 1,000,000 (10^6).
// E.g., ₹2500.50 = 2,500,500,000 PriceMicros.
type PriceMicros int64

// TimeStamp represents Unix Microseconds.
type TimeStamp int64

const PriceScale = 1_000_000

// ToPriceMicros converts a float64 (from external API) to PriceMicros.
// Only used at the boundary. Internal logic uses PriceMicros directly.
func ToPriceMicros(f float64) PriceMicros {
	return PriceMicros(math.Round(f * PriceScale))
}

// FromDecimal converts a decimal price (broker JSON boundary) to PriceMicros.
func FromDecimal(d decimal.Decimal) PriceMicros {
	return PriceMicros(d.Shift(6).IntPart())
}

// Decimal converts a PriceMicros back to a decimal rupee value for wire payloads.
func (p PriceMicros) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -6)
}

// Rupees returns the price as a float64. Display/wire use only.
func (p PriceMicros) Rupees() float64 {
	return float64(p) / PriceScale
}

func (p PriceMicros) String() string {
	return fmt.Sprintf("%.6f", float64(p)/PriceScale)
}

// MarshalJSON writes the price as a decimal rupee number, so batch files and
// persisted records stay human-readable.
func (p PriceMicros) MarshalJSON() ([]byte, error) {
	return []byte(p.Decimal().String()), nil
}

// UnmarshalJSON accepts a decimal rupee number or string.
func (p *PriceMicros) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		return nil
	}
	v, err := ParsePriceMicros(s)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", s, err)
	}
	*p = v
	return nil
}

// ParsePriceMicros parses a string decimal (e.g. "2500.50") to PriceMicros.
// It avoids float64 entirely: the broker quotes NSE ticks in paise and a
// round-trip through float64 can shift the last digit.
func ParsePriceMicros(s string) (PriceMicros, error) {
	if s == "" {
		return 0, nil
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, errors.New("invalid decimal format: multiple dots")
	}

	integerPart := parts[0]
	fractionalPart := ""
	if len(parts) == 2 {
		fractionalPart = parts[1]
	}

	sign := int64(1)
	if strings.HasPrefix(integerPart, "-") {
		sign = -1
		integerPart = integerPart[1:]
	}

	intVal, err := strconv.ParseInt(integerPart, 10, 64)
	if err != nil {
		if integerPart == "" {
			intVal = 0 // ".5" case
		} else {
			return 0, err
		}
	}

	// Pad or truncate the fractional part to exactly six digits.
	const decimals = 6
	if len(fractionalPart) > decimals {
		fractionalPart = fractionalPart[:decimals]
	} else {
		fractionalPart = fractionalPart + strings.Repeat("0", decimals-len(fractionalPart))
	}

	fracVal, err := strconv.ParseInt(fractionalPart, 10, 64)
	if err != nil {
		return 0, err
	}

	return PriceMicros(sign * (intVal*PriceScale + fracVal)), nil
}
