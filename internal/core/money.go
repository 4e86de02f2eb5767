package core

import (
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Yen is a whole-yen amount. JPY has no minor unit.
type Yen int64

// String renders the amount the way the dashboard shows it, e.g. "¥1,700".
func (y Yen) String() string {
	return money.New(int64(y), money.JPY).Display()
}

// Plain renders digits only, for form values and CSV cells.
func (y Yen) Plain() string {
	return decimal.NewFromInt(int64(y)).String()
}

var maxYen = decimal.NewFromInt(math.MaxInt64)

var amountNoise = strings.NewReplacer(",", "", "¥", "", "￥", "", "円", "", " ", "", "\u00a0", "")

// ParseYen reads an amount cell or form value. Grouping separators and a yen
// sign are tolerated; fractions and negative values are rejected.
//
//	ParseYen("1,200")  -> 1200
//	ParseYen("¥500")   -> 500
//	ParseYen("1200.0") -> 1200
//	ParseYen("12.5")   -> ErrInvalidAmount
//	ParseYen("-3")     -> ErrNegativeAmount
//	ParseYen("1e30")   -> ErrInvalidAmount
func ParseYen(s string) (Yen, error) {
	s = amountNoise.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if !d.IsInteger() {
		return 0, ErrInvalidAmount
	}
	if d.IsNegative() {
		return 0, ErrNegativeAmount
	}
	if d.GreaterThan(maxYen) {
		return 0, ErrInvalidAmount
	}
	return Yen(d.IntPart()), nil
}

// Share returns part as a percentage of total, 0 when total is not positive.
func Share(part, total Yen) float64 {
	if total <= 0 {
		return 0
	}
	f, _ := decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(total)), 1).
		Float64()
	return f
}
