package feed

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Foundup/Foundups-Agent-sub000/pkg/orderbook"
)

func TestNewTradeEvent(t *testing.T) {
	executed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	trade := &orderbook.Trade{
		ID:          7,
		Asset:       "F1",
		Buyer:       "bob",
		Seller:      "alice",
		BuyOrderID:  3,
		SellOrderID: 2,
		TakerSide:   orderbook.SideBuy,
		Price:       decimal.RequireFromString("5.25"),
		Quantity:    decimal.RequireFromString("10"),
		Notional:    decimal.RequireFromString("52.5"),
		Fee:         decimal.RequireFromString("1.05"),
		CreatedAt:   executed,
	}

	ev := NewTradeEvent(trade)
	assert.Equal(t, int64(7), ev.TradeID)
	assert.Equal(t, "5.25", ev.Price)
	assert.Equal(t, "52.5", ev.Notional)
	assert.Equal(t, "BUY", ev.TakerSide)
	assert.Equal(t, executed, ev.ExecutedAt)

	// Decimals must survive a JSON round trip as strings, untouched
	// by float formatting.
	b, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded TradeEvent
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, *ev, decoded)
}
