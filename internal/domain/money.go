package domain

import "github.com/shopspring/decimal"

const DefaultCurrency = "INR"

var hundred = decimal.NewFromInt(100)

func Zero() decimal.Decimal {
	return decimal.Zero
}

func LineTotal(price float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))
}

// ToFloat rounds to two decimal places.
func ToFloat(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// ToMinorUnits converts an amount to the smallest currency unit (paise for INR).
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(hundred).Round(0).IntPart()
}

func FromMinorUnits(minor int64) float64 {
	return ToFloat(decimal.NewFromInt(minor).Div(hundred))
}
