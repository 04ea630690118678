package quality

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Deskrado/warpSOL/internal/amm"
	"github.com/Deskrado/warpSOL/internal/market"
)

// scriptedEvaluator serves canned outcomes one per call, repeating the
// last one forever. A nil entry means an error tick.
type scriptedEvaluator struct {
	outcomes []interface{} // bool or error
	i        int
}

func (s *scriptedEvaluator) Evaluate(context.Context, market.PoolKeys) (bool, error) {
	out := s.outcomes[s.i]
	if s.i < len(s.outcomes)-1 {
		s.i++
	}
	if err, ok := out.(error); ok {
		return false, err
	}
	return out.(bool), nil
}

func keys() market.PoolKeys {
	return market.PoolKeys{PoolReference: market.PoolReference{PoolID: "Pool111"}}
}

func TestCheckRequiresConsecutiveMatches(t *testing.T) {
	// A negative tick in the middle resets the streak; the gate only
	// passes once three positives land in a row.
	eval := &scriptedEvaluator{outcomes: []interface{}{true, true, false, true, true, true}}
	g := NewGate(eval, time.Millisecond, time.Second, 3)

	assert.True(t, g.Check(context.Background(), keys()))
	assert.Equal(t, 5, eval.i, "streak must restart from zero after a negative tick")
}

func TestCheckErrorsDoNotResetStreak(t *testing.T) {
	eval := &scriptedEvaluator{outcomes: []interface{}{true, true, errors.New("rpc timeout"), true}}
	g := NewGate(eval, time.Millisecond, time.Second, 3)

	assert.True(t, g.Check(context.Background(), keys()))
}

func TestCheckWindowExpires(t *testing.T) {
	eval := &scriptedEvaluator{outcomes: []interface{}{false}}
	g := NewGate(eval, time.Millisecond, 30*time.Millisecond, 2)

	assert.False(t, g.Check(context.Background(), keys()))
}

// fixedInfoQuoter serves one static pool snapshot.
type fixedInfoQuoter struct {
	info amm.PoolInfo
	err  error
}

func (q fixedInfoQuoter) Quote(context.Context, market.PoolKeys, decimal.Decimal, string, float64) (amm.Quote, error) {
	return amm.Quote{}, errors.New("not used")
}

func (q fixedInfoQuoter) FetchPoolInfo(context.Context, market.PoolKeys) (amm.PoolInfo, error) {
	return q.info, q.err
}

func TestReserveEvaluator(t *testing.T) {
	healthy := amm.PoolInfo{
		BaseReserve:  decimal.NewFromInt(1_000_000),
		QuoteReserve: decimal.NewFromInt(50),
		Status:       statusSwapEnabled,
	}

	cases := []struct {
		name     string
		info     amm.PoolInfo
		min, max decimal.Decimal
		want     bool
	}{
		{"within band", healthy, decimal.NewFromInt(10), decimal.NewFromInt(100), true},
		{"unbounded", healthy, decimal.Zero, decimal.Zero, true},
		{"too small", healthy, decimal.NewFromInt(60), decimal.Zero, false},
		{"too large", healthy, decimal.Zero, decimal.NewFromInt(40), false},
		{"swaps disabled", amm.PoolInfo{
			BaseReserve:  healthy.BaseReserve,
			QuoteReserve: healthy.QuoteReserve,
			Status:       1,
		}, decimal.Zero, decimal.Zero, false},
		{"drained", amm.PoolInfo{
			QuoteReserve: healthy.QuoteReserve,
			Status:       statusSwapEnabled,
		}, decimal.Zero, decimal.Zero, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := NewReserveEvaluator(fixedInfoQuoter{info: tc.info}, tc.min, tc.max)
			got, err := e.Evaluate(context.Background(), keys())
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReserveEvaluatorPropagatesFetchError(t *testing.T) {
	e := NewReserveEvaluator(fixedInfoQuoter{err: errors.New("pool not found")}, decimal.Zero, decimal.Zero)
	_, err := e.Evaluate(context.Background(), keys())
	assert.Error(t, err)
}
