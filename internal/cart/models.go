package cart

import (
	"math"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindProduct Kind = "product"
	KindPackage Kind = "package"
)

// Line is one aggregated entry of a user's cart. It is computed on every
// read and never stored.
type Line struct {
	Kind              Kind            `json:"kind"`
	RefID             int64           `json:"ref_id"` // product or package id
	Name              string          `json:"name"`
	Quantity          int             `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`         // effective price, or package total price
	AvailableQuantity int             `json:"available_quantity"` // snapshot; packages have no ceiling
}

// Unlimited is the availability reported for packages.
const Unlimited = math.MaxInt32

type ViewLine struct {
	Line
	LineTotal    decimal.Decimal  `json:"line_total"`
	DisplayPrice *decimal.Decimal `json:"display_price,omitempty"` // packages only
}

type View struct {
	Lines []ViewLine      `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

type AddItem struct {
	ID       int64 `json:"id" validate:"required,min=1"`
	Quantity int   `json:"quantity" validate:"required,min=1"`
}

type UpdateItem struct {
	Quantity int `json:"quantity"`
}
