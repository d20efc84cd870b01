package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestEffective(t *testing.T) {
	tt := []struct {
		name       string
		list       decimal.Decimal
		discounted decimal.NullDecimal
		promo      bool
		want       decimal.Decimal
	}{
		{
			name:       "promo with discounted price",
			list:       dec("10.00"),
			discounted: decimal.NewNullDecimal(dec("7.50")),
			promo:      true,
			want:       dec("7.50"),
		},
		{
			name:  "promo without discounted price",
			list:  dec("10.00"),
			promo: true,
			want:  dec("10.00"),
		},
		{
			name:       "discounted price without promo",
			list:       dec("10.00"),
			discounted: decimal.NewNullDecimal(dec("7.50")),
			promo:      false,
			want:       dec("10.00"),
		},
		{
			name: "neither",
			list: dec("3.20"),
			want: dec("3.20"),
		},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got := Effective(tc.list, tc.discounted, tc.promo)
			assert.True(t, tc.want.Equal(got), "want %s got %s", tc.want, got)
		})
	}
}

func TestPackageDisplayPrice(t *testing.T) {
	got := PackageDisplayPrice([]Component{
		{UnitPrice: dec("10.00"), Quantity: 2},
		{UnitPrice: dec("3.33"), Quantity: 1},
	})
	// (20 + 3.33) * 0.85 = 19.8305
	assert.Equal(t, "19.83", got.StringFixed(2))

	assert.True(t, PackageDisplayPrice(nil).IsZero())
}

func TestNonNegative(t *testing.T) {
	assert.True(t, NonNegative(dec("-1")).IsZero())
	assert.True(t, dec("2.5").Equal(NonNegative(dec("2.5"))))
}
