package checkout

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// Request is the checkout input. Totals are optional overrides; when absent
// they are derived from the cart.
type Request struct {
	UserID          string           `json:"-" validate:"required"`
	DeliveryAddress string           `json:"delivery_address" validate:"required"`
	PaymentMethod   string           `json:"payment_method" validate:"max=50"`
	PayerName       string           `json:"payer_name" validate:"max=200"`
	CardNumber      string           `json:"card_number" validate:"max=40"`
	CouponCode      *string          `json:"coupon_code"`
	OriginalTotal   *decimal.Decimal `json:"original_total"`
	DiscountApplied *decimal.Decimal `json:"discount_applied"`
	FinalTotal      *decimal.Decimal `json:"final_total"`
}

// Normalize trims text fields and drops a blank coupon code.
func (r *Request) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
	r.DeliveryAddress = strings.TrimSpace(r.DeliveryAddress)
	r.PaymentMethod = strings.TrimSpace(r.PaymentMethod)
	r.PayerName = strings.TrimSpace(r.PayerName)
	if r.CouponCode != nil {
		code := strings.ToUpper(strings.TrimSpace(*r.CouponCode))
		if code == "" {
			r.CouponCode = nil
		} else {
			r.CouponCode = &code
		}
	}
}

// Validate normalizes the request and returns a *ValidationError for the
// first problem found.
func (r *Request) Validate() error {
	r.Normalize()

	if err := validate.Struct(r); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && len(vErrs) > 0 {
			vErr := vErrs[0]
			switch vErr.Tag() {
			case "required":
				return &ValidationError{Field: vErr.Field(), Message: "value missing"}
			case "max":
				return &ValidationError{Field: vErr.Field(), Message: "value longer than " + vErr.Param()}
			default:
				return &ValidationError{Field: vErr.Field(), Message: "failed on " + vErr.Tag()}
			}
		}
		return &ValidationError{Field: "request", Message: err.Error()}
	}

	overrides := []struct {
		field string
		value *decimal.Decimal
	}{
		{"OriginalTotal", r.OriginalTotal},
		{"DiscountApplied", r.DiscountApplied},
		{"FinalTotal", r.FinalTotal},
	}
	for _, o := range overrides {
		if o.value == nil {
			continue
		}
		switch {
		case o.value.IsNegative():
			return &ValidationError{Field: o.field, Message: "must not be negative"}
		case !o.value.Equal(o.value.Round(amountScale)):
			return &ValidationError{Field: o.field, Message: "must have at most 2 decimal places"}
		case o.value.GreaterThanOrEqual(maxAmount):
			return &ValidationError{Field: o.field, Message: "must be less than " + maxAmount.String()}
		}
	}
	return nil
}

// Amounts are stored as NUMERIC(10,2).
const amountScale = 2

var maxAmount = decimal.New(1, 8)
