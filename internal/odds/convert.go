// Package odds provides conversion arithmetic between American and decimal
// price formats. Decimal is the canonical form for probability derivation and
// multi-leg composition; American is the canonical form for display and
// range filtering. American prices do not compose arithmetically, so every
// multi-leg price round-trips through decimal.
package odds

import (
	"fmt"
	"math"
)

// Default acceptance range for combined accumulator prices, American format.
const (
	DefaultRangeLow  = 100
	DefaultRangeHigh = 1000
)

// AmericanToDecimal converts an American price to its decimal equivalent.
// +150 -> 2.50, -200 -> 1.50. An American price of zero never occurs by
// construction; callers validate at the data boundary.
func AmericanToDecimal(american int) float64 {
	if american > 0 {
		return float64(american)/100.0 + 1.0
	}
	return 100.0/math.Abs(float64(american)) + 1.0
}

// DecimalToAmerican converts a decimal price to its American equivalent,
// rounding to the nearest integer. Decimal prices at or below 1.0 carry no
// payout and indicate a programming error in the caller.
func DecimalToAmerican(decimal float64) (int, error) {
	if decimal <= 1.0 {
		return 0, fmt.Errorf("decimal odds must be greater than 1.0, got %v", decimal)
	}
	if decimal >= 2.0 {
		return int(math.Round((decimal - 1.0) * 100.0)), nil
	}
	return int(math.Round(-100.0 / (decimal - 1.0))), nil
}

// ImpliedProbability returns the probability embedded in a decimal price.
func ImpliedProbability(decimal float64) float64 {
	return 1.0 / decimal
}

// AmericanToProbability returns the implied probability of an American price.
// +150 -> 0.4, -150 -> 0.6.
func AmericanToProbability(american int) float64 {
	if american > 0 {
		return 100.0 / (float64(american) + 100.0)
	}
	abs := math.Abs(float64(american))
	return abs / (abs + 100.0)
}

// ComposePrices combines the American prices of an accumulator's legs into a
// single American price: each leg converts to decimal, the decimals multiply,
// and the product converts back. An empty input returns 0, a sentinel meaning
// "no price"; callers must not treat it as a real price.
func ComposePrices(american []int) (int, error) {
	if len(american) == 0 {
		return 0, nil
	}
	combined := 1.0
	for _, a := range american {
		combined *= AmericanToDecimal(a)
	}
	result, err := DecimalToAmerican(combined)
	if err != nil {
		return 0, fmt.Errorf("failed to compose %d prices: %w", len(american), err)
	}
	return result, nil
}

// InRange reports whether an American price falls inside [low, high].
func InRange(american, low, high int) bool {
	return american >= low && american <= high
}

// FormatAmerican formats an American price for display ("+150", "-200").
func FormatAmerican(american int) string {
	if american > 0 {
		return fmt.Sprintf("+%d", american)
	}
	return fmt.Sprintf("%d", american)
}
