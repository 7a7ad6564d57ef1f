// Package exchange is the in-process service surface over the order
// book manager: it resolves market-context hints, optionally serializes
// commands per asset through a shard queue, and fans executed trades
// out to the feed.
package exchange

import (
	"context"

	"github.com/joripage/go_util/pkg/shardqueue"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Foundup/Foundups-Agent-sub000/pkg/marketctx"
	"github.com/Foundup/Foundups-Agent-sub000/pkg/orderbook"
)

type Config struct {
	// EnableShardQueue routes all placements and cancels through a
	// queue sharded by asset id, so each asset's commands run on one
	// goroutine. Off, the per-book lock provides the same exclusion.
	EnableShardQueue bool
	ShardCount       int
	QueueSize        int
}

const (
	defaultShardCount = 16
	defaultQueueSize  = 100_000
)

// PlaceRequest is one buy or sell intent.
type PlaceRequest struct {
	Asset     string
	Submitter string
	Side      orderbook.Side
	Price     decimal.Decimal
	Quantity  decimal.Decimal
}

// PlaceResult is the order's state after the call plus the trades it
// produced, in execution order.
type PlaceResult struct {
	Order  *orderbook.Order
	Trades []*orderbook.Trade
}

type command struct {
	asset string
	run   func()
	done  chan struct{}
}

type Exchange struct {
	manager *orderbook.OrderBookManager
	source  marketctx.Source
	cfg     *Config
	queue   *shardqueue.Shardqueue
	stopCh  chan struct{}
	log     *zap.Logger
}

// New wires the facade. source may be nil: orders then place without
// market-context hints.
func New(cfg *Config, manager *orderbook.OrderBookManager, source marketctx.Source, log *zap.Logger) *Exchange {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ShardCount <= 0 {
		cfg.ShardCount = defaultShardCount
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Exchange{
		manager: manager,
		source:  source,
		cfg:     cfg,
		stopCh:  make(chan struct{}),
		log:     log,
	}
}

// Manager exposes the underlying registry for callback registration
// and read-only reporting.
func (e *Exchange) Manager() *orderbook.OrderBookManager {
	return e.manager
}

// Start brings up the shard queue when configured. Safe to call once.
func (e *Exchange) Start(_ context.Context) {
	if !e.cfg.EnableShardQueue {
		return
	}
	e.queue = shardqueue.NewShardQueue(e.cfg.ShardCount, e.cfg.QueueSize)
	e.queue.Start(func(msg interface{}) error {
		if cmd, ok := msg.(*command); ok {
			cmd.run()
			close(cmd.done)
		}
		return nil
	})
}

// Stop refuses further commands. In-flight commands complete.
func (e *Exchange) Stop() {
	close(e.stopCh)
}

// PlaceOrder resolves hints for the asset, then executes the order.
// Hint-lookup failures degrade to an unhinted placement; business
// rejections come back as order state inside the result, never as an
// error.
func (e *Exchange) PlaceOrder(ctx context.Context, req *PlaceRequest) (*PlaceResult, error) {
	if req == nil {
		return nil, errNilRequest
	}
	if req.Side != orderbook.SideBuy && req.Side != orderbook.SideSell {
		return nil, errInvalidSide
	}
	select {
	case <-e.stopCh:
		return nil, errStopped
	default:
	}

	opts := e.resolveHints(ctx, req.Asset)

	var result PlaceResult
	err := e.dispatch(ctx, req.Asset, func() {
		if req.Side == orderbook.SideBuy {
			result.Order, result.Trades = e.manager.PlaceBuy(req.Asset, req.Submitter, req.Price, req.Quantity, opts...)
		} else {
			result.Order, result.Trades = e.manager.PlaceSell(req.Asset, req.Submitter, req.Price, req.Quantity, opts...)
		}
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CancelOrder voids an order's remainder through the same per-asset
// serialization as placements.
func (e *Exchange) CancelOrder(ctx context.Context, asset string, orderID int64) (bool, error) {
	var ok bool
	err := e.dispatch(ctx, asset, func() {
		ok = e.manager.Cancel(asset, orderID)
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Depth is a read-only passthrough.
func (e *Exchange) Depth(asset string, levels int) orderbook.DepthSnapshot {
	return e.manager.Depth(asset, levels)
}

// Stats is a read-only passthrough.
func (e *Exchange) Stats(asset string) (orderbook.BookStats, bool) {
	return e.manager.Stats(asset)
}

// TradeLog returns the asset's most recent n trades.
func (e *Exchange) TradeLog(asset string, n int) []*orderbook.Trade {
	return e.manager.Trades(asset, n)
}

func (e *Exchange) dispatch(ctx context.Context, asset string, run func()) error {
	if e.queue == nil {
		run()
		return nil
	}

	cmd := &command{asset: asset, run: run, done: make(chan struct{})}
	e.queue.Shard(asset, cmd)

	select {
	case <-cmd.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Exchange) resolveHints(ctx context.Context, asset string) []orderbook.PlaceOption {
	if e.source == nil {
		return nil
	}
	hints, err := e.source.Hints(ctx, asset)
	if err != nil {
		e.log.Warn("market context unavailable, placing without hints",
			zap.String("asset", asset),
			zap.Error(err),
		)
		return nil
	}

	var opts []orderbook.PlaceOption
	if hints.HasAdoption {
		opts = append(opts, orderbook.WithAdoptionRate(hints.AdoptionRate))
	}
	if hints.HasLiquidity {
		opts = append(opts, orderbook.WithLiquidityHint(hints.LiquidityHint))
	}
	return opts
}
