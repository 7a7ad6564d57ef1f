package orderbook

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderBook is the matching engine for one F_i asset priced in UPS.
// All mutation (place, cancel) runs under an exclusive lock for the
// whole transaction; the two sides and the order table have no
// consistent intermediate state mid-match. Read queries take the read
// lock and never mutate.
type OrderBook struct {
	mu sync.RWMutex

	asset      string
	feeRate    decimal.Decimal
	protection *EntryProtectionConfig

	bids *bookSide
	asks *bookSide

	ordersByID map[int64]*Order
	trades     []*Trade

	nextOrderID int64
	nextTradeID int64

	// Market-context hints, consumed only by entry protection.
	adoptionRate  decimal.Decimal
	liquidityHint decimal.Decimal

	openBuyOrders  int64
	openSellOrders int64
	rejectedBuys   int64
	rejectedSells  int64

	volumeAsset   decimal.Decimal
	volumeUPS     decimal.Decimal
	feesCollected decimal.Decimal

	callbacks []func([]*Trade)

	log *zap.Logger
}

// PriceLevel is one aggregated row of a depth snapshot: the live
// remaining quantity and open order count resting at one price.
type PriceLevel struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
	Orders   int
}

// DepthSnapshot is the top of both sides at one point in time.
type DepthSnapshot struct {
	Asset string

	HasBid  bool
	HasAsk  bool
	BestBid decimal.Decimal
	BestAsk decimal.Decimal

	Spread   decimal.Decimal
	MidPrice decimal.Decimal

	Bids []PriceLevel
	Asks []PriceLevel
}

// BookStats is the per-asset reporting snapshot.
type BookStats struct {
	Asset string

	OpenBuyOrders  int64
	OpenSellOrders int64

	TotalTrades   int64
	VolumeAsset   decimal.Decimal
	VolumeUPS     decimal.Decimal
	FeesCollected decimal.Decimal

	RejectedBuyOrders  int64
	RejectedSellOrders int64

	HasBid  bool
	HasAsk  bool
	BestBid decimal.Decimal
	BestAsk decimal.Decimal
	Spread  decimal.Decimal
}

// NewOrderBook builds a book for one asset. The protection config is
// the caller's to clone; the manager hands every book its own copy.
// A nil logger disables book-level logging.
func NewOrderBook(asset string, feeRate decimal.Decimal, protection *EntryProtectionConfig, log *zap.Logger) *OrderBook {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderBook{
		asset:      asset,
		feeRate:    feeRate,
		protection: protection,
		bids:       newBookSide(SideBuy),
		asks:       newBookSide(SideSell),
		ordersByID: make(map[int64]*Order),
		log:        log,
	}
}

// SetAdoptionRate records the externally observed market adoption
// rate for entry protection.
func (b *OrderBook) SetAdoptionRate(rate decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.adoptionRate = rate
}

// SetLiquidityHint records the externally observed liquidity in UPS.
// The book uses the greater of the hint and its own traded volume.
func (b *OrderBook) SetLiquidityHint(liquidity decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.liquidityHint = liquidity
}

func (b *OrderBook) registerTradeCallback(fn func([]*Trade)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callbacks = append(b.callbacks, fn)
}

// PlaceBuy submits a buy order and returns its final state for this
// call together with the trades it produced, in execution order. All
// rule outcomes, including rejections, are order state, never errors.
func (b *OrderBook) PlaceBuy(submitter string, price, qty decimal.Decimal) (*Order, []*Trade) {
	return b.place(SideBuy, submitter, price, qty)
}

// PlaceSell is the sell-side counterpart of PlaceBuy.
func (b *OrderBook) PlaceSell(submitter string, price, qty decimal.Decimal) (*Order, []*Trade) {
	return b.place(SideSell, submitter, price, qty)
}

func (b *OrderBook) place(side Side, submitter string, price, qty decimal.Decimal) (*Order, []*Trade) {
	order, trades, callbacks := b.placeLocked(side, submitter, price, qty)

	// Callbacks run outside the lock so a slow consumer never stalls
	// matching. Trades are immutable by then.
	if len(trades) > 0 {
		for _, cb := range callbacks {
			cb(trades)
		}
	}
	return order, trades
}

func (b *OrderBook) placeLocked(side Side, submitter string, price, qty decimal.Decimal) (*Order, []*Trade, []func([]*Trade)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextOrderID++
	order := &Order{
		ID:        b.nextOrderID,
		Asset:     b.asset,
		Submitter: submitter,
		Side:      side,
		Price:     price,
		Quantity:  qty,
		Status:    StatusOpen,
		CreatedAt: time.Now(),
	}
	b.ordersByID[order.ID] = order

	if code, reason := b.admit(order); code != RejectNone {
		order.reject(code, reason)
		if side == SideBuy {
			b.rejectedBuys++
		} else {
			b.rejectedSells++
		}
		b.log.Debug("order rejected",
			zap.String("asset", b.asset),
			zap.Int64("order_id", order.ID),
			zap.String("side", string(side)),
			zap.String("code", string(code)),
			zap.String("reason", reason),
		)
		return order.snapshot(), nil, nil
	}

	trades := b.match(order)

	if order.Remaining().IsPositive() {
		b.sideFor(side).add(order)
		if side == SideBuy {
			b.openBuyOrders++
		} else {
			b.openSellOrders++
		}
	}

	return order.snapshot(), trades, b.callbacks
}

// admit runs rule 1 (positivity) then the configured entry-protection
// rules against the opposing side's depth.
func (b *OrderBook) admit(order *Order) (RejectCode, string) {
	if !order.Price.IsPositive() || !order.Quantity.IsPositive() {
		return RejectInvalidParams, "price and quantity must be strictly positive"
	}

	depthLevels := 0
	if b.protection != nil {
		depthLevels = b.protection.DepthLevels
	}
	return b.protection.check(order.Side, order.Notional(), marketState{
		adoptionRate:  b.adoptionRate,
		liquidityHint: b.liquidityHint,
		tradedUPS:     b.volumeUPS,
		oppositeDepth: b.sideFor(order.Side.Opposite()).notionalDepth(depthLevels),
	})
}

// match crosses the incoming order against the opposite side until
// prices no longer cross or the order is exhausted. Every execution
// happens at the resting order's limit price.
func (b *OrderBook) match(incoming *Order) []*Trade {
	var trades []*Trade
	opposite := b.sideFor(incoming.Side.Opposite())

	for incoming.Remaining().IsPositive() {
		lvl, ok := opposite.bestLevel()
		if !ok || !crosses(incoming, lvl.price) {
			break
		}

		resting := lvl.orders.Front()
		qty := decimal.Min(incoming.Remaining(), resting.Remaining())

		incoming.fill(qty)
		resting.fill(qty)
		opposite.reduce(lvl.price, qty)

		trades = append(trades, b.recordTrade(incoming, resting, lvl.price, qty))

		if resting.Status == StatusFilled {
			lvl.orders.PopFront()
			if resting.Side == SideBuy {
				b.openBuyOrders--
			} else {
				b.openSellOrders--
			}
		}
	}
	return trades
}

// crosses reports whether the incoming limit reaches the best resting
// price on the opposite side.
func crosses(incoming *Order, restingPrice decimal.Decimal) bool {
	if incoming.Side == SideBuy {
		return incoming.Price.GreaterThanOrEqual(restingPrice)
	}
	return incoming.Price.LessThanOrEqual(restingPrice)
}

func (b *OrderBook) recordTrade(taker, maker *Order, price, qty decimal.Decimal) *Trade {
	b.nextTradeID++
	notional := price.Mul(qty)
	fee := b.feeRate.Mul(notional)

	t := &Trade{
		ID:        b.nextTradeID,
		Asset:     b.asset,
		TakerSide: taker.Side,
		Price:     price,
		Quantity:  qty,
		Notional:  notional,
		Fee:       fee,
		CreatedAt: time.Now(),
	}
	if taker.Side == SideBuy {
		t.Buyer, t.Seller = taker.Submitter, maker.Submitter
		t.BuyOrderID, t.SellOrderID = taker.ID, maker.ID
	} else {
		t.Buyer, t.Seller = maker.Submitter, taker.Submitter
		t.BuyOrderID, t.SellOrderID = maker.ID, taker.ID
	}

	b.trades = append(b.trades, t)
	b.volumeAsset = b.volumeAsset.Add(qty)
	b.volumeUPS = b.volumeUPS.Add(notional)
	b.feesCollected = b.feesCollected.Add(fee)
	return t
}

func (b *OrderBook) sideFor(side Side) *bookSide {
	if side == SideBuy {
		return b.bids
	}
	return b.asks
}

// Cancel voids the unexecuted remainder of an order. Fills that
// already happened stand. Returns false for unknown ids and orders
// that are already filled or cancelled.
func (b *OrderBook) Cancel(orderID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.ordersByID[orderID]
	if !ok || order.IsTerminal() {
		return false
	}

	// Every live order rests in its side's queue; the entry stays as
	// a tombstone until it surfaces, but its quantity leaves the
	// level volume now so reads and depth stay exact.
	b.sideFor(order.Side).reduce(order.Price, order.Remaining())
	order.Status = StatusCancelled
	if order.Side == SideBuy {
		b.openBuyOrders--
	} else {
		b.openSellOrders--
	}

	b.log.Debug("order cancelled",
		zap.String("asset", b.asset),
		zap.Int64("order_id", orderID),
		zap.String("remaining", order.Remaining().String()),
	)
	return true
}

// Lookup returns a copy of the order with the given id, terminal or
// not. The copy is the caller's own; resting orders keep mutating.
func (b *OrderBook) Lookup(orderID int64) (*Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	order, ok := b.ordersByID[orderID]
	if !ok {
		return nil, false
	}
	return order.snapshot(), true
}

// BestBid returns the highest live bid price, if any.
func (b *OrderBook) BestBid() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bids.bestPrice()
}

// BestAsk returns the lowest live ask price, if any.
func (b *OrderBook) BestAsk() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.asks.bestPrice()
}

// Spread is best ask minus best bid; defined only when both sides
// have live orders.
func (b *OrderBook) Spread() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	bid, okBid := b.bids.bestPrice()
	ask, okAsk := b.asks.bestPrice()
	if !okBid || !okAsk {
		return decimal.Decimal{}, false
	}
	return ask.Sub(bid), true
}

// MidPrice is the midpoint of best bid and best ask.
func (b *OrderBook) MidPrice() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	bid, okBid := b.bids.bestPrice()
	ask, okAsk := b.asks.bestPrice()
	if !okBid || !okAsk {
		return decimal.Decimal{}, false
	}
	return bid.Add(ask).Div(decimal.NewFromInt(2)), true
}

// Depth aggregates the top levels of both sides, best price first.
func (b *OrderBook) Depth(levels int) DepthSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := DepthSnapshot{
		Asset: b.asset,
		Bids:  b.bids.topLevels(levels),
		Asks:  b.asks.topLevels(levels),
	}
	if bid, ok := b.bids.bestPrice(); ok {
		snap.HasBid, snap.BestBid = true, bid
	}
	if ask, ok := b.asks.bestPrice(); ok {
		snap.HasAsk, snap.BestAsk = true, ask
	}
	if snap.HasBid && snap.HasAsk {
		snap.Spread = snap.BestAsk.Sub(snap.BestBid)
		snap.MidPrice = snap.BestBid.Add(snap.BestAsk).Div(decimal.NewFromInt(2))
	}
	return snap
}

// Stats reports the book's counters and top of book.
func (b *OrderBook) Stats() BookStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := BookStats{
		Asset:              b.asset,
		OpenBuyOrders:      b.openBuyOrders,
		OpenSellOrders:     b.openSellOrders,
		TotalTrades:        int64(len(b.trades)),
		VolumeAsset:        b.volumeAsset,
		VolumeUPS:          b.volumeUPS,
		FeesCollected:      b.feesCollected,
		RejectedBuyOrders:  b.rejectedBuys,
		RejectedSellOrders: b.rejectedSells,
	}
	if bid, ok := b.bids.bestPrice(); ok {
		stats.HasBid, stats.BestBid = true, bid
	}
	if ask, ok := b.asks.bestPrice(); ok {
		stats.HasAsk, stats.BestAsk = true, ask
	}
	if stats.HasBid && stats.HasAsk {
		stats.Spread = stats.BestAsk.Sub(stats.BestBid)
	}
	return stats
}

// Trades returns the most recent n trades in execution order, or the
// whole history when n <= 0.
func (b *OrderBook) Trades(n int) []*Trade {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n <= 0 || n > len(b.trades) {
		n = len(b.trades)
	}
	out := make([]*Trade, n)
	copy(out, b.trades[len(b.trades)-n:])
	return out
}
