// Package entry decides go/no-go for a buy by polling a pool's price and
// evaluating momentum over the observed series.
package entry

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Deskrado/warpSOL/internal/indicators"
)

// PriceFunc fetches the current quote-per-base price of the pool under
// evaluation.
type PriceFunc func(ctx context.Context) (float64, error)

// Entry condition: oversold RSI with a bullish MACD cross.
const rsiOversold = 30.0

// Gate runs the bounded entry-evaluation polling loop.
type Gate struct {
	interval time.Duration
	duration time.Duration
}

// NewGate creates a gate polling at interval for at most duration.
func NewGate(interval, duration time.Duration) *Gate {
	return &Gate{interval: interval, duration: duration}
}

// Evaluate polls the price until the momentum condition holds, the
// iteration budget runs out, or ctx is cancelled. It returns true on the
// first tick where 0 < RSI < 30 and the MACD line is above its signal
// line. Per-tick fetch errors are logged and skipped; they never abort
// the evaluation.
func (g *Gate) Evaluate(ctx context.Context, mint string, price PriceFunc) bool {
	if g.interval <= 0 || g.duration <= 0 {
		return false
	}

	maxIters := int(g.duration / g.interval)
	if maxIters < 1 {
		maxIters = 1
	}
	deadline := time.Now().Add(g.duration)

	sampler := NewSampler()
	rsi := 0.0
	sawMACD := false

	for iter := 0; iter < maxIters && time.Now().Before(deadline); iter++ {
		if iter > 0 {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(g.interval):
			}
		}

		p, err := price(ctx)
		if err != nil {
			log.Warn().Err(err).Str("mint", mint).Msg("entry price fetch failed, skipping tick")
			continue
		}
		sampler.Observe(p)

		rsi = indicators.RSI(sampler.Samples())
		macd, ok := indicators.MACD(sampler.Samples())
		if ok {
			sawMACD = true
		}

		if rsi > 0 && rsi < rsiOversold && ok && macd.MACD > macd.Signal {
			log.Info().
				Str("mint", mint).
				Float64("rsi", rsi).
				Float64("macd", macd.MACD).
				Float64("signal", macd.Signal).
				Int("samples", sampler.Len()).
				Msg("🎯 entry signal: oversold with bullish cross")
			return true
		}
	}

	// RSI never left its zero default and MACD never produced a value:
	// the pool had too little history to evaluate at all.
	if rsi == 0 && !sawMACD {
		log.Debug().
			Str("mint", mint).
			Int("samples", sampler.Len()).
			Msg("entry evaluation ended with insufficient price history")
		return false
	}

	log.Debug().
		Str("mint", mint).
		Float64("rsi", rsi).
		Int("samples", sampler.Len()).
		Msg("entry budget exhausted without a signal")
	return false
}
