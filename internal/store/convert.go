package store

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// conversionFactors maps (recorded unit, requested unit) to a multiplier.
// Identity conversions never hit this table.
var conversionFactors = map[[2]string]decimal.Decimal{
	{"km", "m"}:     decimal.NewFromInt(1000),
	{"m", "km"}:     decimal.RequireFromString("0.001"),
	{"g", "kg"}:     decimal.RequireFromString("0.001"),
	{"kg", "g"}:     decimal.NewFromInt(1000),
	{"ml", "l"}:     decimal.RequireFromString("0.001"),
	{"l", "ml"}:     decimal.NewFromInt(1000),
	{"cal", "kcal"}: decimal.RequireFromString("0.001"),
	{"kcal", "cal"}: decimal.NewFromInt(1000),
	{"s", "min"}:    decimal.NewFromInt(1).Div(decimal.NewFromInt(60)),
	{"min", "s"}:    decimal.NewFromInt(60),
}

// ConvertQuantity converts a recorded quantity into the requested unit.
func ConvertQuantity(v decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if from == to || from == "" || to == "" {
		return v, nil
	}
	factor, ok := conversionFactors[[2]string{from, to}]
	if !ok {
		return decimal.Zero, fmt.Errorf("no unit conversion from %q to %q", from, to)
	}
	return v.Mul(factor), nil
}
