package orderbook

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// EntryProtectionConfig bounds the notional of incoming orders so a
// single actor cannot dominate a thin, early-stage market. The entry
// cap scales with observed adoption and liquidity; the depth-impact
// guard blocks any one order from sweeping too much of the opposing
// book. All fields are policy inputs in float form (yaml-friendly);
// the checks themselves run on decimals.
type EntryProtectionConfig struct {
	Enabled bool `yaml:"enabled"`

	// Entry-notional cap (buy side only).
	BaseMaxOrderBTC         float64 `yaml:"base_max_order_btc"`
	UPSPerBTC               float64 `yaml:"ups_per_btc"`
	AdoptionScaleMultiplier float64 `yaml:"adoption_scale_multiplier"`
	MinAdoptionScale        float64 `yaml:"min_adoption_scale"`
	MaxAdoptionScale        float64 `yaml:"max_adoption_scale"`
	LiquidityReference      float64 `yaml:"liquidity_reference"`
	MaxLiquidityBoost       float64 `yaml:"max_liquidity_boost"`

	// Depth-impact guard (both sides).
	DepthLevels      int     `yaml:"depth_levels"`
	MaxDepthFraction float64 `yaml:"max_depth_fraction"`
	MinDepthNotional float64 `yaml:"min_depth_notional"`
}

// DefaultEntryProtectionConfig returns the reference policy: at 5%
// adoption and zero liquidity the buy-side cap is 50,000 UPS.
func DefaultEntryProtectionConfig() *EntryProtectionConfig {
	return &EntryProtectionConfig{
		Enabled:                 true,
		BaseMaxOrderBTC:         1,
		UPSPerBTC:               100_000,
		AdoptionScaleMultiplier: 10,
		MinAdoptionScale:        0.1,
		MaxAdoptionScale:        1,
		LiquidityReference:      1_000_000,
		MaxLiquidityBoost:       4,
		DepthLevels:             5,
		MaxDepthFraction:        0.35,
		MinDepthNotional:        10_000,
	}
}

// Validate rejects out-of-range policy values at construction time,
// before any order can trip over them.
func (c *EntryProtectionConfig) Validate() error {
	if c == nil {
		return errNilProtectionConfig
	}
	if !c.Enabled {
		return nil
	}
	if c.BaseMaxOrderBTC <= 0 {
		return fmt.Errorf("entry protection: base_max_order_btc must be positive, got %v", c.BaseMaxOrderBTC)
	}
	if c.UPSPerBTC <= 0 {
		return fmt.Errorf("entry protection: ups_per_btc must be positive, got %v", c.UPSPerBTC)
	}
	if c.AdoptionScaleMultiplier <= 0 {
		return fmt.Errorf("entry protection: adoption_scale_multiplier must be positive, got %v", c.AdoptionScaleMultiplier)
	}
	if c.MinAdoptionScale <= 0 || c.MinAdoptionScale > c.MaxAdoptionScale {
		return fmt.Errorf("entry protection: adoption scale bounds invalid: min=%v max=%v", c.MinAdoptionScale, c.MaxAdoptionScale)
	}
	if c.LiquidityReference <= 0 {
		return fmt.Errorf("entry protection: liquidity_reference must be positive, got %v", c.LiquidityReference)
	}
	if c.MaxLiquidityBoost < 0 {
		return fmt.Errorf("entry protection: max_liquidity_boost must not be negative, got %v", c.MaxLiquidityBoost)
	}
	if c.DepthLevels <= 0 {
		return fmt.Errorf("entry protection: depth_levels must be positive, got %v", c.DepthLevels)
	}
	if c.MaxDepthFraction <= 0 || c.MaxDepthFraction >= 1 {
		return fmt.Errorf("entry protection: max_depth_fraction must be in (0, 1), got %v", c.MaxDepthFraction)
	}
	if c.MinDepthNotional < 0 {
		return fmt.Errorf("entry protection: min_depth_notional must not be negative, got %v", c.MinDepthNotional)
	}
	return nil
}

// Clone returns an independent copy. Every book gets its own copy so
// per-asset tuning never leaks across books.
func (c *EntryProtectionConfig) Clone() *EntryProtectionConfig {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// marketState is the slice of book state entry protection reads at
// check time: externally supplied hints plus the book's own cumulative
// volume and the opposing side's top-of-book depth.
type marketState struct {
	adoptionRate  decimal.Decimal
	liquidityHint decimal.Decimal
	tradedUPS     decimal.Decimal
	oppositeDepth decimal.Decimal
}

// check applies the entry-notional cap and the depth-impact guard in
// order. A zero RejectCode means the order may enter the book.
// Positivity of price and quantity is checked by the book before this
// runs, whether or not protection is enabled.
func (c *EntryProtectionConfig) check(side Side, notional decimal.Decimal, mkt marketState) (RejectCode, string) {
	if c == nil || !c.Enabled {
		return RejectNone, ""
	}

	if side == SideBuy {
		maxNotional := c.entryCap(mkt)
		if notional.GreaterThan(maxNotional) {
			return RejectEntryCap, fmt.Sprintf("order notional %s UPS exceeds entry cap %s UPS", notional, maxNotional)
		}
	}

	if mkt.oppositeDepth.GreaterThanOrEqual(decimal.NewFromFloat(c.MinDepthNotional)) {
		limit := decimal.NewFromFloat(c.MaxDepthFraction).Mul(mkt.oppositeDepth)
		if notional.GreaterThan(limit) {
			return RejectDepthImpact, fmt.Sprintf("order notional %s UPS exceeds %v%% of opposing depth %s UPS (limit %s UPS)",
				notional, c.MaxDepthFraction*100, mkt.oppositeDepth, limit)
		}
	}

	return RejectNone, ""
}

// entryCap computes the buy-side cap in UPS:
//
//	base_max_order_btc x ups_per_btc x adoption_scale x liquidity_scale
//
// where adoption_scale clamps the externally observed adoption rate
// and liquidity_scale grows with the greater of the liquidity hint and
// the book's own traded volume.
func (c *EntryProtectionConfig) entryCap(mkt marketState) decimal.Decimal {
	adoptionScale := clampDecimal(
		mkt.adoptionRate.Mul(decimal.NewFromFloat(c.AdoptionScaleMultiplier)),
		decimal.NewFromFloat(c.MinAdoptionScale),
		decimal.NewFromFloat(c.MaxAdoptionScale),
	)

	observed := decimal.Max(mkt.liquidityHint, mkt.tradedUPS)
	boost := clampDecimal(
		observed.Div(decimal.NewFromFloat(c.LiquidityReference)),
		decimal.Zero,
		decimal.NewFromFloat(c.MaxLiquidityBoost),
	)
	liquidityScale := decimal.NewFromInt(1).Add(boost)

	return decimal.NewFromFloat(c.BaseMaxOrderBTC).
		Mul(decimal.NewFromFloat(c.UPSPerBTC)).
		Mul(adoptionScale).
		Mul(liquidityScale)
}

func clampDecimal(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
