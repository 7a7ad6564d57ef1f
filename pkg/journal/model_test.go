package journal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Foundup/Foundups-Agent-sub000/pkg/feed"
)

func TestRecordFromEvent(t *testing.T) {
	executed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ev := &feed.TradeEvent{
		TradeID:     7,
		Asset:       "F1",
		Buyer:       "bob",
		Seller:      "alice",
		BuyOrderID:  3,
		SellOrderID: 2,
		TakerSide:   "BUY",
		Price:       "5.25",
		Quantity:    "10",
		Notional:    "52.5",
		Fee:         "1.05",
		ExecutedAt:  executed,
	}

	record, err := RecordFromEvent(ev)
	require.NoError(t, err)
	assert.Equal(t, "F1", record.Asset)
	assert.Equal(t, int64(7), record.TradeID)
	assert.True(t, record.Price.Equal(record.Notional.Div(record.Quantity)))
	assert.True(t, record.Fee.Equal(record.Notional.Mul(decimal.RequireFromString("0.02"))))
	assert.Equal(t, executed, record.ExecutedAt)
}

func TestRecordFromEventRejectsBadDecimals(t *testing.T) {
	for _, mutate := range []func(*feed.TradeEvent){
		func(ev *feed.TradeEvent) { ev.Price = "not-a-number" },
		func(ev *feed.TradeEvent) { ev.Quantity = "" },
		func(ev *feed.TradeEvent) { ev.Notional = "1e" },
		func(ev *feed.TradeEvent) { ev.Fee = "--1" },
	} {
		ev := &feed.TradeEvent{
			TradeID: 1, Asset: "F1",
			Price: "5", Quantity: "10", Notional: "50", Fee: "1",
		}
		mutate(ev)
		if _, err := RecordFromEvent(ev); err == nil {
			t.Errorf("expected error for malformed event %+v", ev)
		}
	}
}
