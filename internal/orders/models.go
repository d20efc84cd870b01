package orders

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusProcessing = "In lavorazione"
	StatusShipped    = "Spedito"
	StatusDelivered  = "Consegnato"
	StatusCancelled  = "Annullato"
)

var statuses = []string{StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

// ParseStatus matches s case-insensitively against the known order states
// and returns the canonical spelling.
func ParseStatus(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, known := range statuses {
		if strings.EqualFold(s, known) {
			return known, true
		}
	}
	return "", false
}

// Order represents an order header in the database
type Order struct {
	ID              int64           `json:"id"`
	UserID          string          `json:"user_id"`
	DeliveryAddress string          `json:"delivery_address"`
	OriginalTotal   decimal.Decimal `json:"original_total"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
	Status          string          `json:"status"`
	PlacedAt        time.Time       `json:"placed_at"`
	PaymentMethod   string          `json:"payment_method"`
	PayerName       string          `json:"payer_name"`
	MaskedCard      *string         `json:"masked_card,omitempty"`
	CouponCode      *string         `json:"coupon_code,omitempty"`
	Lines           []Line          `json:"lines,omitempty"`
}

// Line is one purchased product. Packages are stored as their component
// products, never by package id.
type Line struct {
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"` // price at purchase time
}

// NewOrder is the header written at checkout.
type NewOrder struct {
	UserID          string
	DeliveryAddress string
	OriginalTotal   decimal.Decimal
	Discount        decimal.Decimal
	Total           decimal.Decimal
	Status          string
	PlacedAt        time.Time
	PaymentMethod   string
	PayerName       string
	MaskedCard      *string
	CouponCode      *string
}

type Tracking struct {
	OrderID      int64     `json:"order_id"`
	Carrier      string    `json:"carrier"`
	TrackingCode string    `json:"tracking_code"`
	Details      string    `json:"details"`
	ShippedAt    time.Time `json:"shipped_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type StatusUpdate struct {
	Status       string `json:"status" validate:"required"`
	Carrier      string `json:"carrier"`
	TrackingCode string `json:"tracking_code"`
	Details      string `json:"details"`
}
