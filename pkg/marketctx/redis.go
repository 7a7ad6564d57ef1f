package marketctx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const keyPrefix = "marketctx:"

// Field names inside the per-asset hash.
const (
	fieldAdoptionRate = "adoption_rate"
	fieldLiquidityUPS = "liquidity_ups"
)

// RedisSource reads hints from the hash marketctx:<asset>, written by
// the surrounding tokenomics model. Absent keys or fields are not
// errors; they come back as unknown.
type RedisSource struct {
	client *redis.Client
}

func NewRedisSource(client *redis.Client) *RedisSource {
	return &RedisSource{client: client}
}

func (s *RedisSource) Hints(ctx context.Context, asset string) (Hints, error) {
	vals, err := s.client.HGetAll(ctx, keyPrefix+asset).Result()
	if err != nil {
		return Hints{}, fmt.Errorf("marketctx: read %s%s: %w", keyPrefix, asset, err)
	}

	var h Hints
	if raw, ok := vals[fieldAdoptionRate]; ok {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return Hints{}, fmt.Errorf("marketctx: bad %s for %s: %w", fieldAdoptionRate, asset, err)
		}
		h.AdoptionRate, h.HasAdoption = rate, true
	}
	if raw, ok := vals[fieldLiquidityUPS]; ok {
		liq, err := decimal.NewFromString(raw)
		if err != nil {
			return Hints{}, fmt.Errorf("marketctx: bad %s for %s: %w", fieldLiquidityUPS, asset, err)
		}
		h.LiquidityHint, h.HasLiquidity = liq, true
	}
	return h, nil
}
