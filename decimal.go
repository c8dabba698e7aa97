package lob

import (
	"github.com/cockroachdb/apd"
	"github.com/pkg/errors"
)

// BaseContext is used for all price and quantity arithmetic.
var BaseContext = apd.Context{
	Precision:   0,               // no rounding
	MaxExponent: apd.MaxExponent, // up to 10^5 exponent
	MinExponent: apd.MinExponent, // support only 4 decimal places
	Traps:       apd.DefaultTraps,
}

// ParseDecimal parses a decimal from its string form, e.g. "20.25".
func ParseDecimal(s string) (apd.Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return apd.Decimal{}, errors.Wrapf(err, "cannot parse decimal %q", s)
	}
	return *d, nil
}

// return a minimum of two decimals
func minDecimal(a, b *apd.Decimal) *apd.Decimal {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// copyDecimal returns a copy sharing no storage with d. Struct-copied
// decimals alias their coefficient's limbs, so any decimal that will be
// mutated in place must be detached from values the caller still holds.
func copyDecimal(d *apd.Decimal) apd.Decimal {
	var c apd.Decimal
	c.Set(d)
	return c
}
