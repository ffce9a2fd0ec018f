package model

import (
	"math"

	"github.com/shopspring/decimal"
)

// Factor is a non-negative ratio that may be infinite. Health factors and
// liquidation buffers use it so "no debt" positions never divide by zero.
type Factor struct {
	value    decimal.Decimal
	infinite bool
}

func NewFactor(v decimal.Decimal) Factor {
	if v.IsNegative() {
		v = decimal.Zero
	}
	return Factor{value: v}
}

func InfiniteFactor() Factor {
	return Factor{infinite: true}
}

func (f Factor) IsInfinite() bool { return f.infinite }

// Decimal returns the finite value. It is zero for infinite factors; callers
// must check IsInfinite first.
func (f Factor) Decimal() decimal.Decimal {
	if f.infinite {
		return decimal.Zero
	}
	return f.value
}

// LessThan reports whether the factor is strictly below v. An infinite
// factor is never below anything.
func (f Factor) LessThan(v decimal.Decimal) bool {
	if f.infinite {
		return false
	}
	return f.value.Cmp(v) < 0
}

// AtLeast reports whether the factor is v or above. Infinite factors always
// are.
func (f Factor) AtLeast(v decimal.Decimal) bool {
	if f.infinite {
		return true
	}
	return f.value.Cmp(v) >= 0
}

// Float64 is a display helper only.
func (f Factor) Float64() float64 {
	if f.infinite {
		return math.Inf(1)
	}
	return f.value.InexactFloat64()
}

// StringFixed renders the factor rounded to the given number of decimal
// places, for display only.
func (f Factor) StringFixed(places int32) string {
	if f.infinite {
		return "infinite"
	}
	return f.value.StringFixed(places)
}

func (f Factor) String() string {
	if f.infinite {
		return "infinite"
	}
	return f.value.String()
}

func (f Factor) MarshalJSON() ([]byte, error) {
	if f.infinite {
		return []byte(`"infinite"`), nil
	}
	return []byte(`"` + f.value.String() + `"`), nil
}
