package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConf_NoBrokers(t *testing.T) {
	_, err := NewConf(nil)
	assert.Error(t, err)
}

func TestOrderPlacedEvent_JSON(t *testing.T) {
	ev := OrderPlacedEvent{
		EventID:    "e1",
		OrderID:    7,
		UserID:     "u1",
		FinalTotal: decimal.RequireFromString("80.00"),
		Lines: []OrderLineEvent{
			{ProductID: 3, Quantity: 2, UnitPrice: decimal.RequireFromString("40.00")},
		},
		PlacedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "80", m["final_total"])
	assert.Equal(t, float64(7), m["order_id"])
	assert.NotContains(t, m, "coupon_code")
}
