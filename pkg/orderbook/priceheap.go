package orderbook

import "github.com/shopspring/decimal"

// PriceHeap implements heap.Interface over the distinct price levels of
// one book side. The less function decides which price is better: bids
// use a max-heap, asks a min-heap. An index keyed by the canonical
// decimal string keeps each price in the heap at most once —
// decimal.String trims trailing zeros, so numerically equal prices
// share a key.
type PriceHeap struct {
	prices []decimal.Decimal
	less   func(a, b decimal.Decimal) bool
	index  map[string]bool
}

func NewPriceHeap(less func(a, b decimal.Decimal) bool) *PriceHeap {
	return &PriceHeap{
		prices: []decimal.Decimal{},
		less:   less,
		index:  make(map[string]bool),
	}
}

func (h *PriceHeap) Len() int {
	return len(h.prices)
}

func (h *PriceHeap) Less(i, j int) bool {
	return h.less(h.prices[i], h.prices[j])
}

func (h *PriceHeap) Swap(i, j int) {
	h.prices[i], h.prices[j] = h.prices[j], h.prices[i]
}

func (h *PriceHeap) Push(x any) {
	price := x.(decimal.Decimal)
	key := price.String()
	if !h.index[key] {
		h.index[key] = true
		h.prices = append(h.prices, price)
	}
}

func (h *PriceHeap) Pop() any {
	n := len(h.prices)
	price := h.prices[n-1]
	h.prices = h.prices[:n-1]
	delete(h.index, price.String())
	return price
}

// Peek returns the best price without removing it.
func (h *PriceHeap) Peek() (decimal.Decimal, bool) {
	if len(h.prices) == 0 {
		return decimal.Decimal{}, false
	}
	return h.prices[0], true
}
