package types

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits between base units and the
// display unit. One display unit is 10^9 base units.
const Decimals = 9

// MaxBalance bounds every stored balance so that all backends, including
// those with signed 64-bit columns, can hold it.
const MaxBalance Amount = math.MaxInt64

// Amount is a quantity of the native asset in indivisible base units.
// All arithmetic is integer-only.
type Amount uint64

// ParseAmount parses a display-unit string such as "1.5" into base units.
// More than Decimals fractional digits, negatives and values above
// MaxBalance are rejected.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("amount: parse %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount: parse %q: negative", s)
	}
	base := d.Shift(Decimals)
	if !base.Equal(base.Truncate(0)) {
		return 0, fmt.Errorf("amount: parse %q: more than %d decimals", s, Decimals)
	}
	if base.GreaterThan(decimal.NewFromUint64(uint64(MaxBalance))) {
		return 0, fmt.Errorf("amount: parse %q: exceeds maximum balance", s)
	}
	return Amount(base.BigInt().Uint64()), nil
}

// Add returns a+b and false when the sum would exceed MaxBalance.
func (a Amount) Add(b Amount) (Amount, bool) {
	if b > MaxBalance || a > MaxBalance-b {
		return 0, false
	}
	return a + b, true
}

// Sub returns a-b and false when b exceeds a.
func (a Amount) Sub(b Amount) (Amount, bool) {
	if b > a {
		return 0, false
	}
	return a - b, true
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a == 0 }

// Decimal returns the amount in display units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromUint64(uint64(a)).Shift(-Decimals)
}

// String formats the amount in display units, e.g. "1.5".
func (a Amount) String() string {
	return a.Decimal().String()
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Base    uint64 `json:"base"`
		Display string `json:"display"`
	}{
		Base:    uint64(a),
		Display: a.String(),
	})
}
