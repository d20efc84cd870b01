package catalog

import (
	"storefront/internal/pricing"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID                int64               `json:"id"`
	Name              string              `json:"name"`
	Price             decimal.Decimal     `json:"price"`
	DiscountedPrice   decimal.NullDecimal `json:"discounted_price"`
	Promo             bool                `json:"promo"`
	AvailableQuantity int                 `json:"available_quantity"`
	Blocked           bool                `json:"blocked"`
}

// EffectivePrice is the unit price charged for the product right now.
func (p Product) EffectivePrice() decimal.Decimal {
	return pricing.Effective(p.Price, p.DiscountedPrice, p.Promo)
}

type Package struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	DisplayPrice decimal.Decimal `json:"display_price"` // 0.85 × component sum, shown in listings
	Components   []Component     `json:"components,omitempty"`
}

// Component is a product inside a package, priced at its effective price.
type Component struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"` // per package
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// ExpandedLine is one product purchased through a package.
type ExpandedLine struct {
	ProductID int64
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Expand multiplies every component by the number of packages bought.
// A package without components expands to nothing.
func Expand(components []Component, packageQty int) []ExpandedLine {
	lines := make([]ExpandedLine, 0, len(components))
	for _, c := range components {
		lines = append(lines, ExpandedLine{
			ProductID: c.ProductID,
			Name:      c.Name,
			Quantity:  packageQty * c.Quantity,
			UnitPrice: c.UnitPrice,
		})
	}
	return lines
}

// DisplayPrice is the bundle price advertised for a package with these components.
func DisplayPrice(components []Component) decimal.Decimal {
	priced := make([]pricing.Component, 0, len(components))
	for _, c := range components {
		priced = append(priced, pricing.Component{UnitPrice: c.UnitPrice, Quantity: c.Quantity})
	}
	return pricing.PackageDisplayPrice(priced)
}
