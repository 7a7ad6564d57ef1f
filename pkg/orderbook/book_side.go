package orderbook

import (
	"container/heap"
	"sort"

	"github.com/gammazero/deque"
	"github.com/shopspring/decimal"
)

// priceLevel holds the resting orders at one price in arrival order.
// volume tracks the live remaining quantity across the level's open
// orders; cancelled orders stay in the deque as tombstones until they
// reach the front, but their quantity leaves volume immediately.
type priceLevel struct {
	price  decimal.Decimal
	orders deque.Deque[*Order]
	volume decimal.Decimal
}

// bookSide is one half of a book: a price heap over the levels plus a
// FIFO queue per level. Heap order gives price priority, the deque
// gives time priority within a level.
type bookSide struct {
	side   Side
	levels map[string]*priceLevel
	heap   *PriceHeap
}

func newBookSide(side Side) *bookSide {
	less := func(a, b decimal.Decimal) bool { return a.Cmp(b) > 0 } // bids: highest first
	if side == SideSell {
		less = func(a, b decimal.Decimal) bool { return a.Cmp(b) < 0 } // asks: lowest first
	}
	return &bookSide{
		side:   side,
		levels: make(map[string]*priceLevel),
		heap:   NewPriceHeap(less),
	}
}

// add rests an order at its limit price, creating the level on first use.
func (s *bookSide) add(order *Order) {
	key := order.Price.String()
	lvl := s.levels[key]
	if lvl == nil {
		lvl = &priceLevel{price: order.Price, volume: decimal.Zero}
		s.levels[key] = lvl
		heap.Push(s.heap, order.Price)
	}
	lvl.orders.PushBack(order)
	lvl.volume = lvl.volume.Add(order.Remaining())
}

// reduce takes executed or cancelled quantity out of the order's level.
func (s *bookSide) reduce(price, qty decimal.Decimal) {
	if lvl := s.levels[price.String()]; lvl != nil {
		lvl.volume = lvl.volume.Sub(qty)
	}
}

// bestLevel returns the best-priced level whose front is a live order,
// purging cancelled tombstones and exhausted levels on the way. It
// mutates the side; callers hold the book's write lock.
func (s *bookSide) bestLevel() (*priceLevel, bool) {
	for {
		price, ok := s.heap.Peek()
		if !ok {
			return nil, false
		}
		key := price.String()
		lvl := s.levels[key]
		if lvl == nil {
			heap.Pop(s.heap)
			continue
		}
		for lvl.orders.Len() > 0 && lvl.orders.Front().Status == StatusCancelled {
			lvl.orders.PopFront()
		}
		if lvl.orders.Len() == 0 {
			heap.Pop(s.heap)
			delete(s.levels, key)
			continue
		}
		return lvl, true
	}
}

// bestPrice is the read-only counterpart of bestLevel: it scans the
// heap's backing slice for the best price with live volume and never
// mutates, so it is safe under the book's read lock.
func (s *bookSide) bestPrice() (decimal.Decimal, bool) {
	var best decimal.Decimal
	found := false
	for _, price := range s.heap.prices {
		lvl := s.levels[price.String()]
		if lvl == nil || !lvl.volume.IsPositive() {
			continue
		}
		if !found || s.heap.less(price, best) {
			best = price
			found = true
		}
	}
	return best, found
}

// topLevels aggregates up to n live levels, best price first.
func (s *bookSide) topLevels(n int) []PriceLevel {
	if n <= 0 {
		return nil
	}
	prices := make([]decimal.Decimal, 0, len(s.heap.prices))
	for _, price := range s.heap.prices {
		if lvl := s.levels[price.String()]; lvl != nil && lvl.volume.IsPositive() {
			prices = append(prices, price)
		}
	}
	sort.Slice(prices, func(i, j int) bool { return s.heap.less(prices[i], prices[j]) })
	if len(prices) > n {
		prices = prices[:n]
	}

	out := make([]PriceLevel, 0, len(prices))
	for _, price := range prices {
		lvl := s.levels[price.String()]
		open := 0
		for i := 0; i < lvl.orders.Len(); i++ {
			if !lvl.orders.At(i).IsTerminal() {
				open++
			}
		}
		out = append(out, PriceLevel{Price: price, Quantity: lvl.volume, Orders: open})
	}
	return out
}

// notionalDepth sums price x live volume over the best n levels. Input
// to the depth-impact guard.
func (s *bookSide) notionalDepth(n int) decimal.Decimal {
	total := decimal.Zero
	for _, lvl := range s.topLevels(n) {
		total = total.Add(lvl.Price.Mul(lvl.Quantity))
	}
	return total
}
