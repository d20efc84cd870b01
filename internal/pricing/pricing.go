// Package pricing holds the price rules shared by cart view, package listing
// and checkout. Anything that shows or charges a price goes through here.
package pricing

import "github.com/shopspring/decimal"

// PackageDisplayRate is applied to the sum of component prices when a
// package is shown to shoppers.
var PackageDisplayRate = decimal.RequireFromString("0.85")

// Effective returns the discounted price when a promotion is active and a
// discounted price exists, otherwise the list price.
func Effective(list decimal.Decimal, discounted decimal.NullDecimal, promo bool) decimal.Decimal {
	if promo && discounted.Valid {
		return discounted.Decimal
	}
	return list
}

// LineTotal is unit × quantity.
func LineTotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}

// Component is one priced member of a package.
type Component struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// PackageDisplayPrice is the bundle price advertised for a package:
// the sum of its component line totals at PackageDisplayRate, rounded to cents.
func PackageDisplayPrice(components []Component) decimal.Decimal {
	sum := decimal.Zero
	for _, c := range components {
		sum = sum.Add(LineTotal(c.UnitPrice, c.Quantity))
	}
	return sum.Mul(PackageDisplayRate).Round(2)
}

// NonNegative clamps d at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
