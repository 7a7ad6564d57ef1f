package exchange

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Foundup/Foundups-Agent-sub000/pkg/marketctx"
	"github.com/Foundup/Foundups-Agent-sub000/pkg/orderbook"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestExchange(t *testing.T, cfg *Config, source marketctx.Source) *Exchange {
	t.Helper()
	manager, err := orderbook.NewOrderBookManager(&orderbook.ManagerConfig{
		FeeRate:         d("0.02"),
		EntryProtection: orderbook.DefaultEntryProtectionConfig(),
	}, nil)
	require.NoError(t, err)

	e := New(cfg, manager, source, nil)
	e.Start(context.Background())
	return e
}

func TestPlaceOrderAppliesHints(t *testing.T) {
	source := marketctx.NewStaticSource()
	// 5% adoption on F1 lifts its buy cap to 50,000 UPS.
	source.Set("F1", marketctx.Hints{AdoptionRate: d("0.05"), HasAdoption: true})

	e := newTestExchange(t, nil, source)

	// 1. 30,000 notional on F1: admitted thanks to the hint.
	res, err := e.PlaceOrder(context.Background(), &PlaceRequest{
		Asset: "F1", Submitter: "bob", Side: orderbook.SideBuy,
		Price: d("10"), Quantity: d("3000"),
	})
	require.NoError(t, err)
	assert.Equal(t, orderbook.StatusOpen, res.Order.Status)

	// 2. Same order on F2, which has no hints: capped at 10,000.
	res, err = e.PlaceOrder(context.Background(), &PlaceRequest{
		Asset: "F2", Submitter: "bob", Side: orderbook.SideBuy,
		Price: d("10"), Quantity: d("3000"),
	})
	require.NoError(t, err)
	assert.Equal(t, orderbook.StatusCancelled, res.Order.Status)
	assert.Equal(t, orderbook.RejectEntryCap, res.Order.RejectCode)
}

func TestPlaceOrderWithoutSource(t *testing.T) {
	e := newTestExchange(t, nil, nil)

	res, err := e.PlaceOrder(context.Background(), &PlaceRequest{
		Asset: "F1", Submitter: "alice", Side: orderbook.SideSell,
		Price: d("5"), Quantity: d("10"),
	})
	require.NoError(t, err)
	assert.Equal(t, orderbook.StatusOpen, res.Order.Status)
	assert.Empty(t, res.Trades)
}

func TestPlaceOrderMatchesAndReportsTrades(t *testing.T) {
	e := newTestExchange(t, nil, nil)
	ctx := context.Background()

	_, err := e.PlaceOrder(ctx, &PlaceRequest{
		Asset: "F1", Submitter: "alice", Side: orderbook.SideSell,
		Price: d("5"), Quantity: d("10"),
	})
	require.NoError(t, err)

	res, err := e.PlaceOrder(ctx, &PlaceRequest{
		Asset: "F1", Submitter: "bob", Side: orderbook.SideBuy,
		Price: d("5"), Quantity: d("10"),
	})
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)
	assert.True(t, res.Trades[0].Price.Equal(d("5")))
	assert.Equal(t, orderbook.StatusFilled, res.Order.Status)

	log := e.TradeLog("F1", 10)
	require.Len(t, log, 1)
	assert.Equal(t, res.Trades[0].ID, log[0].ID)

	stats, ok := e.Stats("F1")
	require.True(t, ok)
	assert.EqualValues(t, 1, stats.TotalTrades)
}

func TestCancelOrderPassthrough(t *testing.T) {
	e := newTestExchange(t, nil, nil)
	ctx := context.Background()

	res, err := e.PlaceOrder(ctx, &PlaceRequest{
		Asset: "F1", Submitter: "bob", Side: orderbook.SideBuy,
		Price: d("5"), Quantity: d("10"),
	})
	require.NoError(t, err)

	ok, err := e.CancelOrder(ctx, "F1", res.Order.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.CancelOrder(ctx, "F1", res.Order.ID)
	require.NoError(t, err)
	assert.False(t, ok, "second cancel must be a no-op")

	snap := e.Depth("F1", 5)
	assert.False(t, snap.HasBid)
}

func TestPlaceOrderValidation(t *testing.T) {
	e := newTestExchange(t, nil, nil)
	ctx := context.Background()

	_, err := e.PlaceOrder(ctx, nil)
	assert.Error(t, err)

	_, err = e.PlaceOrder(ctx, &PlaceRequest{Asset: "F1", Side: orderbook.Side("HOLD")})
	assert.Error(t, err)
}

func TestStoppedExchangeRefusesOrders(t *testing.T) {
	e := newTestExchange(t, nil, nil)
	e.Stop()

	_, err := e.PlaceOrder(context.Background(), &PlaceRequest{
		Asset: "F1", Submitter: "bob", Side: orderbook.SideBuy,
		Price: d("5"), Quantity: d("10"),
	})
	assert.ErrorIs(t, err, errStopped)
}

func TestShardQueueSerialization(t *testing.T) {
	e := newTestExchange(t, &Config{EnableShardQueue: true, ShardCount: 4, QueueSize: 1024}, nil)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		_, err := e.PlaceOrder(ctx, &PlaceRequest{
			Asset: "F1", Submitter: "alice", Side: orderbook.SideSell,
			Price: d("100"), Quantity: d("1"),
		})
		require.NoError(t, err)
	}
	res, err := e.PlaceOrder(ctx, &PlaceRequest{
		Asset: "F1", Submitter: "bob", Side: orderbook.SideBuy,
		Price: d("100"), Quantity: d("50"),
	})
	require.NoError(t, err)
	assert.Len(t, res.Trades, 50)

	ok, err := e.CancelOrder(ctx, "F1", res.Order.ID)
	require.NoError(t, err)
	assert.False(t, ok, "fully filled taker never rested")
}
