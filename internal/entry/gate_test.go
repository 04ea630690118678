package entry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Deskrado/warpSOL/internal/indicators"
)

// seriesFunc serves prices one per call, repeating the last one forever.
func seriesFunc(prices []float64) PriceFunc {
	i := 0
	return func(context.Context) (float64, error) {
		p := prices[i]
		if i < len(prices)-1 {
			i++
		}
		return p, nil
	}
}

// signalAt returns the first prefix length at which the entry condition
// holds, or -1. Mirrors the decision rule over the deduplicated series.
func signalAt(prices []float64) int {
	var dedup []float64
	for i, p := range prices {
		if n := len(dedup); n > 0 && dedup[n-1] == p {
			continue
		}
		dedup = append(dedup, p)
		rsi := indicators.RSI(dedup)
		macd, ok := indicators.MACD(dedup)
		if rsi > 0 && rsi < 30 && ok && macd.MACD > macd.Signal {
			return i
		}
	}
	return -1
}

// reboundSeries is a long sell-off followed by a shallow recovery: RSI is
// still deep in oversold territory when the MACD line crosses back above
// its signal line.
func reboundSeries() []float64 {
	var prices []float64
	p := 100.0
	for i := 0; i < 40; i++ {
		prices = append(prices, p)
		p -= 1.0
	}
	for i := 0; i < 15; i++ {
		prices = append(prices, p)
		p += 0.5
	}
	return prices
}

func TestEvaluateEntersOnOversoldBullishCross(t *testing.T) {
	prices := reboundSeries()
	require.GreaterOrEqual(t, signalAt(prices), 0, "fixture must contain a valid entry tick")

	g := NewGate(time.Millisecond, 2*time.Second)
	got := g.Evaluate(context.Background(), "MintAAA", seriesFunc(prices))
	assert.True(t, got)
}

func TestEvaluateRejectsPureDowntrend(t *testing.T) {
	// 16 strictly non-increasing samples: RSI pins to 0 and the MACD
	// cross never goes bullish, so no tick satisfies both at once.
	prices := []float64{1.00, 1.00, 0.99, 0.97, 0.95, 0.93, 0.91, 0.89,
		0.87, 0.85, 0.83, 0.81, 0.79, 0.77, 0.75, 0.73}
	require.Equal(t, -1, signalAt(prices))

	g := NewGate(time.Millisecond, 100*time.Millisecond)
	got := g.Evaluate(context.Background(), "MintBBB", seriesFunc(prices))
	assert.False(t, got)
}

func TestEvaluateInsufficientHistory(t *testing.T) {
	// A flat quote dedups to a single sample: RSI never leaves its zero
	// default and MACD never produces a value.
	g := NewGate(time.Millisecond, 30*time.Millisecond)
	got := g.Evaluate(context.Background(), "MintCCC", func(context.Context) (float64, error) {
		return 0.005, nil
	})
	assert.False(t, got)
}

func TestEvaluateToleratesFetchErrors(t *testing.T) {
	prices := reboundSeries()
	fails := 3
	inner := seriesFunc(prices)
	flaky := func(ctx context.Context) (float64, error) {
		if fails > 0 {
			fails--
			return 0, errors.New("rpc: connection reset")
		}
		return inner(ctx)
	}

	g := NewGate(time.Millisecond, 2*time.Second)
	got := g.Evaluate(context.Background(), "MintDDD", flaky)
	assert.True(t, got, "transient fetch errors must not abort the evaluation")
	assert.Zero(t, fails)
}

func TestEvaluateStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGate(10*time.Millisecond, time.Minute)
	start := time.Now()
	got := g.Evaluate(ctx, "MintEEE", seriesFunc(reboundSeries()))
	assert.False(t, got)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSamplerDedups(t *testing.T) {
	s := NewSampler()
	assert.True(t, s.Observe(1.0))
	assert.False(t, s.Observe(1.0))
	assert.True(t, s.Observe(1.1))
	assert.False(t, s.Observe(1.1))
	assert.True(t, s.Observe(1.0))
	assert.Equal(t, []float64{1.0, 1.1, 1.0}, s.Samples())
}
