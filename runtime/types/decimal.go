package types

import (
	"fmt"
	"math/big"
	"strings"
)

// Decimal is an exact decimal number kept in its textual form. Arithmetic is
// not in scope; the type exists so numeric exactness survives the round trip
// through backends that return NUMERIC columns as text.
type Decimal struct {
	value string
}

// NewDecimal creates a decimal from its string form. The input is not
// validated; use ParseDecimal when the source is untrusted.
func NewDecimal(value string) Decimal {
	return Decimal{value: value}
}

// ParseDecimal creates a decimal after validating the textual form.
func ParseDecimal(value string) (Decimal, error) {
	s := strings.TrimSpace(value)
	if _, ok := new(big.Float).SetString(s); !ok {
		return Decimal{}, fmt.Errorf("invalid decimal %q", value)
	}
	return Decimal{value: s}, nil
}

// String returns the textual form.
func (d Decimal) String() string {
	return d.value
}

// Float64 returns the nearest binary double, for callers that accept the
// precision loss.
func (d Decimal) Float64() (float64, error) {
	f, ok := new(big.Float).SetString(d.value)
	if !ok {
		return 0, fmt.Errorf("invalid decimal %q", d.value)
	}
	v, _ := f.Float64()
	return v, nil
}
