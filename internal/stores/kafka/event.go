package kafka

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicOrderPlaced        = `storefront.order-placed`
	TopicOrderStatusChanged = `storefront.order-status-changed`
)

// OrderPlacedEvent is published once per committed checkout.
type OrderPlacedEvent struct {
	EventID    string           `json:"event_id"`
	OrderID    int64            `json:"order_id"`
	UserID     string           `json:"user_id"`
	FinalTotal decimal.Decimal  `json:"final_total"`
	CouponCode *string          `json:"coupon_code,omitempty"`
	Lines      []OrderLineEvent `json:"lines"`
	PlacedAt   time.Time        `json:"placed_at"`
}

type OrderLineEvent struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderStatusChangedEvent struct {
	EventID   string    `json:"event_id"`
	OrderID   int64     `json:"order_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changed_at"`
}
