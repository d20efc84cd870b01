package coupons

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypePercentage = "percentage"
	TypeFixed      = "fixed"
)

type Coupon struct {
	ID           int64           `json:"id"`
	Code         string          `json:"code"`
	Description  string          `json:"description"`
	DiscountType string          `json:"discount_type"`
	Value        decimal.Decimal `json:"value"`
	MinAmount    decimal.Decimal `json:"min_amount"`
	StartsAt     *time.Time      `json:"starts_at,omitempty"`
	ExpiresAt    *time.Time      `json:"expires_at,omitempty"`
	MaxUses      *int            `json:"max_uses,omitempty"` // nil means unlimited
	Uses         int             `json:"uses"`
	Active       bool            `json:"active"`
	SingleUse    bool            `json:"single_use"` // once per user
	CreatedAt    time.Time       `json:"created_at"`
}

type NewCoupon struct {
	Code         string           `json:"code" validate:"required,max=50"`
	Description  string           `json:"description" validate:"max=500"`
	DiscountType string           `json:"discount_type" validate:"required,oneof=percentage fixed"`
	Value        decimal.Decimal  `json:"value"`
	MinAmount    *decimal.Decimal `json:"min_amount"`
	StartsAt     *time.Time       `json:"starts_at"`
	ExpiresAt    *time.Time       `json:"expires_at"`
	MaxUses      *int             `json:"max_uses" validate:"omitempty,min=1"`
	SingleUse    bool             `json:"single_use"`
}

// Evaluation is the outcome of applying a coupon to a cart total.
type Evaluation struct {
	Code       string          `json:"code"`
	Discount   decimal.Decimal `json:"discount"`
	FinalTotal decimal.Decimal `json:"final_total"`
}
