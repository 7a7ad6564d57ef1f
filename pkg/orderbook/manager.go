package orderbook

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ManagerConfig carries the defaults every lazily created book starts
// from. The protection template is cloned per book.
type ManagerConfig struct {
	FeeRate         decimal.Decimal
	EntryProtection *EntryProtectionConfig
}

// OrderBookManager owns one OrderBook per asset id, created on first
// placement. It is an explicit instance wired by the caller; there is
// no package-level registry, so independent managers (and tests) can
// coexist.
type OrderBookManager struct {
	books sync.Map // asset id -> *OrderBook

	mu        sync.Mutex
	callbacks []func([]*Trade)

	cfg *ManagerConfig
	log *zap.Logger
}

// NewOrderBookManager validates the defaults once so no book ever
// starts from a bad policy.
func NewOrderBookManager(cfg *ManagerConfig, log *zap.Logger) (*OrderBookManager, error) {
	if cfg == nil {
		return nil, errNilManagerConfig
	}
	if cfg.FeeRate.IsNegative() || cfg.FeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, errInvalidFeeRate
	}
	if err := cfg.EntryProtection.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderBookManager{cfg: cfg, log: log}, nil
}

// PlaceOption pushes a market-context update into the target book
// before the order is processed.
type PlaceOption func(*OrderBook)

// WithAdoptionRate supplies the observed market adoption rate.
func WithAdoptionRate(rate decimal.Decimal) PlaceOption {
	return func(b *OrderBook) { b.SetAdoptionRate(rate) }
}

// WithLiquidityHint supplies externally observed liquidity in UPS.
func WithLiquidityHint(liquidity decimal.Decimal) PlaceOption {
	return func(b *OrderBook) { b.SetLiquidityHint(liquidity) }
}

// PlaceBuy routes a buy order to the asset's book, creating the book
// on first use.
func (m *OrderBookManager) PlaceBuy(asset, submitter string, price, qty decimal.Decimal, opts ...PlaceOption) (*Order, []*Trade) {
	book := m.getOrCreateBook(asset)
	for _, opt := range opts {
		opt(book)
	}
	return book.PlaceBuy(submitter, price, qty)
}

// PlaceSell routes a sell order to the asset's book.
func (m *OrderBookManager) PlaceSell(asset, submitter string, price, qty decimal.Decimal, opts ...PlaceOption) (*Order, []*Trade) {
	book := m.getOrCreateBook(asset)
	for _, opt := range opts {
		opt(book)
	}
	return book.PlaceSell(submitter, price, qty)
}

// Cancel voids an order's remainder. Unknown assets and ids report
// false; cancellation never creates a book.
func (m *OrderBookManager) Cancel(asset string, orderID int64) bool {
	book, ok := m.lookupBook(asset)
	if !ok {
		return false
	}
	return book.Cancel(orderID)
}

// Lookup finds an order by id in the asset's book.
func (m *OrderBookManager) Lookup(asset string, orderID int64) (*Order, bool) {
	book, ok := m.lookupBook(asset)
	if !ok {
		return nil, false
	}
	return book.Lookup(orderID)
}

// Depth snapshots the asset's book. An unknown asset yields an empty
// snapshot rather than creating a book.
func (m *OrderBookManager) Depth(asset string, levels int) DepthSnapshot {
	book, ok := m.lookupBook(asset)
	if !ok {
		return DepthSnapshot{Asset: asset}
	}
	return book.Depth(levels)
}

// Stats reports the asset's counters; ok is false when no book exists.
func (m *OrderBookManager) Stats(asset string) (BookStats, bool) {
	book, ok := m.lookupBook(asset)
	if !ok {
		return BookStats{}, false
	}
	return book.Stats(), true
}

// Trades returns the asset's most recent n trades.
func (m *OrderBookManager) Trades(asset string, n int) []*Trade {
	book, ok := m.lookupBook(asset)
	if !ok {
		return nil
	}
	return book.Trades(n)
}

// TotalFees sums collected fees across every book.
func (m *OrderBookManager) TotalFees() decimal.Decimal {
	total := decimal.Zero
	m.books.Range(func(_, v any) bool {
		total = total.Add(v.(*OrderBook).Stats().FeesCollected)
		return true
	})
	return total
}

// Assets lists the asset ids with a live book, sorted.
func (m *OrderBookManager) Assets() []string {
	var assets []string
	m.books.Range(func(k, _ any) bool {
		assets = append(assets, k.(string))
		return true
	})
	sort.Strings(assets)
	return assets
}

// RegisterTradeCallback subscribes fn to the trades of every current
// and future book. Callbacks receive each result slice in execution
// order, after the book's lock is released.
func (m *OrderBookManager) RegisterTradeCallback(fn func([]*Trade)) {
	m.mu.Lock()
	m.callbacks = append(m.callbacks, fn)
	m.mu.Unlock()

	m.books.Range(func(_, v any) bool {
		v.(*OrderBook).registerTradeCallback(fn)
		return true
	})
}

func (m *OrderBookManager) lookupBook(asset string) (*OrderBook, bool) {
	if v, ok := m.books.Load(asset); ok {
		return v.(*OrderBook), true
	}
	return nil, false
}

func (m *OrderBookManager) getOrCreateBook(asset string) *OrderBook {
	if v, ok := m.books.Load(asset); ok {
		return v.(*OrderBook)
	}

	book := NewOrderBook(asset, m.cfg.FeeRate, m.cfg.EntryProtection.Clone(), m.log)

	m.mu.Lock()
	for _, cb := range m.callbacks {
		book.registerTradeCallback(cb)
	}
	m.mu.Unlock()

	actual, loaded := m.books.LoadOrStore(asset, book)
	if !loaded {
		m.log.Debug("order book created", zap.String("asset", asset))
	}
	return actual.(*OrderBook)
}
