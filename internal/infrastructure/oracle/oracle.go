package oracle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"credlink/internal/domain/loan"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

var ErrNoPrice = errors.New("no price for asset")

// PriceOracle quotes assets in a common reference unit.
type PriceOracle interface {
	Price(ctx context.Context, asset string) (decimal.Decimal, error)
}

// Static serves prices from a fixed table. Lookups are case-insensitive.
type Static struct {
	prices map[string]decimal.Decimal
}

func NewStatic(prices map[string]decimal.Decimal) *Static {
	s := &Static{prices: make(map[string]decimal.Decimal, len(prices))}
	for asset, p := range prices {
		s.prices[normalize(asset)] = p
	}
	return s
}

func (s *Static) Price(_ context.Context, asset string) (decimal.Decimal, error) {
	p, ok := s.prices[normalize(asset)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNoPrice, asset)
	}
	return p, nil
}

// Redis reads quotes published under prefix+ASSET by an external feeder,
// falling back to another oracle when the key is missing.
type Redis struct {
	rdb      *redis.Client
	prefix   string
	fallback PriceOracle
}

func NewRedis(rdb *redis.Client, prefix string, fallback PriceOracle) *Redis {
	return &Redis{rdb: rdb, prefix: prefix, fallback: fallback}
}

func (r *Redis) Price(ctx context.Context, asset string) (decimal.Decimal, error) {
	raw, err := r.rdb.Get(ctx, r.prefix+normalize(asset)).Result()
	if errors.Is(err, redis.Nil) {
		if r.fallback != nil {
			return r.fallback.Price(ctx, asset)
		}
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNoPrice, asset)
	}
	if err != nil {
		return decimal.Zero, err
	}
	p, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price for %s: %w", asset, err)
	}
	if !p.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive quote for %s", ErrNoPrice, asset)
	}
	return p, nil
}

// Valuer turns a loan's collateral into loan-asset base units.
type Valuer struct {
	oracle PriceOracle
}

func NewValuer(o PriceOracle) *Valuer { return &Valuer{oracle: o} }

// CollateralValue is floor(collateral * price(collateral) / price(asset)),
// saturating at MaxUint64.
func (v *Valuer) CollateralValue(ctx context.Context, l *loan.Loan) (uint64, error) {
	if normalize(l.CollateralAsset) == normalize(l.Asset) {
		return l.CollateralAmount, nil
	}
	cp, err := v.oracle.Price(ctx, l.CollateralAsset)
	if err != nil {
		return 0, err
	}
	ap, err := v.oracle.Price(ctx, l.Asset)
	if err != nil {
		return 0, err
	}
	if !ap.IsPositive() {
		return 0, fmt.Errorf("%w: non-positive quote for %s", ErrNoPrice, l.Asset)
	}
	value := fromUint64(l.CollateralAmount).Mul(cp).Div(ap).Floor()
	if value.IsNegative() {
		return 0, nil
	}
	if value.GreaterThan(fromUint64(math.MaxUint64)) {
		return math.MaxUint64, nil
	}
	return value.BigInt().Uint64(), nil
}

func fromUint64(x uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(x), 0)
}

func normalize(asset string) string { return strings.ToUpper(strings.TrimSpace(asset)) }
