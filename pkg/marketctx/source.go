// Package marketctx supplies the adoption-rate and liquidity inputs
// the order books feed into entry protection. The engine works without
// a source; hints only tighten or loosen the entry rules.
package marketctx

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// Hints is one asset's observed market context. The Has flags separate
// "zero" from "unknown": a missing field leaves the book's previous
// value in place.
type Hints struct {
	AdoptionRate  decimal.Decimal
	LiquidityHint decimal.Decimal
	HasAdoption   bool
	HasLiquidity  bool
}

// Source resolves the current hints for one asset.
type Source interface {
	Hints(ctx context.Context, asset string) (Hints, error)
}

// StaticSource serves hints from an in-memory map. Used by tests and
// standalone runs without a redis deployment.
type StaticSource struct {
	mu    sync.RWMutex
	hints map[string]Hints
}

func NewStaticSource() *StaticSource {
	return &StaticSource{hints: make(map[string]Hints)}
}

func (s *StaticSource) Set(asset string, h Hints) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hints[asset] = h
}

func (s *StaticSource) Hints(_ context.Context, asset string) (Hints, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hints[asset], nil
}
