package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// DiscountedPrice returns price reduced by discount percent, rounded to cents.
// A missing discount leaves the price untouched.
func DiscountedPrice(price decimal.Decimal, discount decimal.NullDecimal) decimal.Decimal {
	if !discount.Valid {
		return price
	}
	off := discount.Decimal.Div(hundred).Mul(price)
	return price.Sub(off).Round(2)
}

// ValidDiscount reports whether d is absent or within [0, 100].
func ValidDiscount(d decimal.NullDecimal) bool {
	if !d.Valid {
		return true
	}
	return !d.Decimal.IsNegative() && d.Decimal.LessThanOrEqual(hundred)
}
