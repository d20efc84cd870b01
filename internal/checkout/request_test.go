package checkout

import (
	"errors"
	"storefront/internal/cart"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskCard(t *testing.T) {
	tt := []struct {
		name string
		in   string
		want *string
	}{
		{name: "spaced", in: "4111 1111 1111 1234", want: ptr("**** **** **** 1234")},
		{name: "compact", in: "5500000000000004", want: ptr("**** **** **** 0004")},
		{name: "short", in: "12 3", want: ptr("****")},
		{name: "exactly four", in: "9876", want: ptr("**** **** **** 9876")},
		{name: "empty", in: "", want: nil},
		{name: "blank", in: "   ", want: nil},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MaskCard(tc.in))
		})
	}
}

func ptr(s string) *string { return &s }

func TestRequest_Validate(t *testing.T) {
	neg := decimal.RequireFromString("-1")
	blank := "  "
	threeDecimals := decimal.RequireFromString("10.005")
	trailingZeros := decimal.RequireFromString("10.500")
	tooLarge := decimal.New(1, 8)
	largest := decimal.RequireFromString("99999999.99")

	tt := []struct {
		name      string
		req       Request
		wantField string
	}{
		{name: "ok", req: Request{UserID: "u", DeliveryAddress: "Via Roma 1"}},
		{name: "missing user", req: Request{DeliveryAddress: "Via Roma 1"}, wantField: "UserID"},
		{name: "missing address", req: Request{UserID: "u"}, wantField: "DeliveryAddress"},
		{name: "blank address", req: Request{UserID: "u", DeliveryAddress: " \t "}, wantField: "DeliveryAddress"},
		{name: "negative final", req: Request{UserID: "u", DeliveryAddress: "x", FinalTotal: &neg}, wantField: "FinalTotal"},
		{name: "negative discount", req: Request{UserID: "u", DeliveryAddress: "x", DiscountApplied: &neg}, wantField: "DiscountApplied"},
		{name: "three decimals", req: Request{UserID: "u", DeliveryAddress: "x", OriginalTotal: &threeDecimals}, wantField: "OriginalTotal"},
		{name: "trailing zeros accepted", req: Request{UserID: "u", DeliveryAddress: "x", OriginalTotal: &trailingZeros}},
		{name: "final too large", req: Request{UserID: "u", DeliveryAddress: "x", FinalTotal: &tooLarge}, wantField: "FinalTotal"},
		{name: "largest storable", req: Request{UserID: "u", DeliveryAddress: "x", FinalTotal: &largest}},
		{name: "blank coupon ignored", req: Request{UserID: "u", DeliveryAddress: "x", CouponCode: &blank}},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantField == "" {
				require.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Equal(t, tc.wantField, vErr.Field)
		})
	}
}

func TestRequest_NormalizeDropsBlankCoupon(t *testing.T) {
	blank := " "
	r := Request{CouponCode: &blank}
	r.Normalize()
	assert.Nil(t, r.CouponCode)
}

func TestComputeTotals(t *testing.T) {
	d := decimal.RequireFromString
	lines := []cart.Line{
		{Kind: cart.KindProduct, Quantity: 2, UnitPrice: d("8.00")},
		{Kind: cart.KindPackage, Quantity: 1, UnitPrice: d("50.00")},
	}
	hundred, twenty, eighty := d("100"), d("20"), d("80")
	big := d("500")

	tt := []struct {
		name                      string
		req                       Request
		original, discount, final string
	}{
		{name: "no overrides", original: "66", discount: "0", final: "66"},
		{name: "all overrides", req: Request{OriginalTotal: &hundred, DiscountApplied: &twenty, FinalTotal: &eighty},
			original: "100", discount: "20", final: "80"},
		{name: "discount only", req: Request{DiscountApplied: &twenty}, original: "66", discount: "20", final: "46"},
		{name: "final follows original override", req: Request{OriginalTotal: &hundred, DiscountApplied: &twenty},
			original: "100", discount: "20", final: "80"},
		{name: "discount above total", req: Request{DiscountApplied: &big}, original: "66", discount: "500", final: "0"},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeTotals(lines, tc.req)
			assert.True(t, d("66").Equal(got.Computed))
			assert.True(t, d(tc.original).Equal(got.Original), "original %s", got.Original)
			assert.True(t, d(tc.discount).Equal(got.Discount), "discount %s", got.Discount)
			assert.True(t, d(tc.final).Equal(got.Final), "final %s", got.Final)
			assert.False(t, got.Final.IsNegative())
		})
	}
}

func TestValidateAvailability(t *testing.T) {
	lines := []cart.Line{
		{Kind: cart.KindPackage, RefID: 9, Quantity: 1000, AvailableQuantity: cart.Unlimited},
		{Kind: cart.KindProduct, RefID: 1, Name: "ok", Quantity: 5, AvailableQuantity: 5},
		{Kind: cart.KindProduct, RefID: 2, Name: "short", Quantity: 10, AvailableQuantity: 5},
		{Kind: cart.KindProduct, RefID: 3, Name: "also short", Quantity: 3, AvailableQuantity: 0},
	}
	err := ValidateAvailability(lines)
	var sErr *InsufficientStockError
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, "short", sErr.ProductName)
	assert.Equal(t, 5, sErr.Available)

	assert.NoError(t, ValidateAvailability(lines[:2]))
	assert.NoError(t, ValidateAvailability(nil))
}

func TestErrorTaxonomy(t *testing.T) {
	pErr := persistence("insert order", errors.New("conn reset"))
	assert.ErrorIs(t, pErr, ErrPersistence)
	assert.True(t, classified(pErr))
	assert.True(t, classified(ErrEmptyCart))
	assert.True(t, classified(&ValidationError{Field: "x"}))
	assert.True(t, classified(&InsufficientStockError{}))
	assert.False(t, classified(errors.New("other")))
}
