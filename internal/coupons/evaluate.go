package coupons

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrCouponNotFound    = errors.New("coupon not found")
	ErrCouponInactive    = errors.New("coupon is not active")
	ErrCouponNotStarted  = errors.New("coupon is not valid yet")
	ErrCouponExpired     = errors.New("coupon has expired")
	ErrCouponExhausted   = errors.New("coupon usage limit reached")
	ErrCouponAlreadyUsed = errors.New("coupon already used")
	ErrBelowMinimum      = errors.New("order total below coupon minimum")
	ErrDuplicateCode     = errors.New("coupon code already exists")
	ErrInvalidCoupon     = errors.New("invalid coupon")
)

var hundred = decimal.NewFromInt(100)

// NormalizeCode is how codes are stored and looked up.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CheckUsable reports why c cannot be redeemed at now, or nil.
func CheckUsable(c Coupon, now time.Time, alreadyUsedByUser bool) error {
	switch {
	case !c.Active:
		return ErrCouponInactive
	case c.StartsAt != nil && now.Before(*c.StartsAt):
		return ErrCouponNotStarted
	case c.ExpiresAt != nil && now.After(*c.ExpiresAt):
		return ErrCouponExpired
	case c.MaxUses != nil && c.Uses >= *c.MaxUses:
		return ErrCouponExhausted
	case c.SingleUse && alreadyUsedByUser:
		return ErrCouponAlreadyUsed
	}
	return nil
}

// Discount is the amount c takes off total. A fixed discount never exceeds
// the total.
func Discount(c Coupon, total decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch c.DiscountType {
	case TypePercentage:
		d = total.Mul(c.Value).Div(hundred)
	case TypeFixed:
		d = decimal.Min(c.Value, total)
	}
	return d.Round(2)
}

// Evaluate checks c against a cart total and prices the discount.
func Evaluate(c Coupon, total decimal.Decimal, now time.Time, alreadyUsedByUser bool) (Evaluation, error) {
	if err := CheckUsable(c, now, alreadyUsedByUser); err != nil {
		return Evaluation{}, err
	}
	if total.LessThan(c.MinAmount) {
		return Evaluation{}, fmt.Errorf("%w: minimum is %s", ErrBelowMinimum, c.MinAmount.StringFixed(2))
	}

	discount := Discount(c, total)
	final := total.Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}
	return Evaluation{Code: c.Code, Discount: discount, FinalTotal: final.Round(2)}, nil
}

// Check validates a new coupon beyond its struct tags.
func (n NewCoupon) Check() error {
	if !n.Value.IsPositive() {
		return fmt.Errorf("%w: value must be positive", ErrInvalidCoupon)
	}
	if n.DiscountType == TypePercentage && n.Value.GreaterThan(hundred) {
		return fmt.Errorf("%w: percentage above 100", ErrInvalidCoupon)
	}
	if n.MinAmount != nil && n.MinAmount.IsNegative() {
		return fmt.Errorf("%w: negative minimum amount", ErrInvalidCoupon)
	}
	if n.StartsAt != nil && n.ExpiresAt != nil && n.ExpiresAt.Before(*n.StartsAt) {
		return fmt.Errorf("%w: expires before it starts", ErrInvalidCoupon)
	}
	return nil
}
