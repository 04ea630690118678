package quality

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Deskrado/warpSOL/internal/amm"
	"github.com/Deskrado/warpSOL/internal/market"
)

// Raydium pool status with swapping enabled.
const statusSwapEnabled = 6

// ReserveEvaluator applies pool-size rules against live reserves: the
// pool must be open for swaps and its quote reserve must sit inside the
// configured band. Tiny pools are rugs, huge pools are not early.
type ReserveEvaluator struct {
	quoter amm.Quoter
	min    decimal.Decimal // zero disables the lower bound
	max    decimal.Decimal // zero disables the upper bound
}

// NewReserveEvaluator creates the evaluator. Bounds are quote-asset
// amounts.
func NewReserveEvaluator(quoter amm.Quoter, min, max decimal.Decimal) *ReserveEvaluator {
	return &ReserveEvaluator{quoter: quoter, min: min, max: max}
}

// Evaluate implements Evaluator.
func (e *ReserveEvaluator) Evaluate(ctx context.Context, keys market.PoolKeys) (bool, error) {
	info, err := e.quoter.FetchPoolInfo(ctx, keys)
	if err != nil {
		return false, err
	}

	if info.Status != statusSwapEnabled {
		return false, nil
	}
	if !info.BaseReserve.IsPositive() || !info.QuoteReserve.IsPositive() {
		return false, nil
	}
	if e.min.IsPositive() && info.QuoteReserve.LessThan(e.min) {
		return false, nil
	}
	if e.max.IsPositive() && info.QuoteReserve.GreaterThan(e.max) {
		return false, nil
	}
	return true, nil
}
