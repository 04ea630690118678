// Package quality gates entries on an external pool-quality rule
// evaluator. The rules themselves (liquidity floors, authority checks,
// holder distribution) live behind the Evaluator interface; this package
// only enforces that a pool passes them repeatedly before money moves.
package quality

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Deskrado/warpSOL/internal/market"
)

// Evaluator applies the pool-quality rules to one pool. Stateless per
// call.
type Evaluator interface {
	Evaluate(ctx context.Context, keys market.PoolKeys) (bool, error)
}

// Gate requires a number of consecutive positive evaluations within a
// bounded window before approving a pool. A single negative tick resets
// the streak; a flickering pool never qualifies.
type Gate struct {
	eval     Evaluator
	interval time.Duration
	duration time.Duration
	required int
}

// NewGate creates a gate requiring `required` consecutive matches,
// checking every interval for at most duration.
func NewGate(eval Evaluator, interval, duration time.Duration, required int) *Gate {
	if required < 1 {
		required = 1
	}
	return &Gate{eval: eval, interval: interval, duration: duration, required: required}
}

// Check runs the consecutive-match loop. Evaluator errors are transient:
// logged and skipped without resetting the streak.
func (g *Gate) Check(ctx context.Context, keys market.PoolKeys) bool {
	deadline := time.Now().Add(g.duration)
	streak := 0

	for first := true; time.Now().Before(deadline); first = false {
		if !first {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(g.interval):
			}
		}

		ok, err := g.eval.Evaluate(ctx, keys)
		if err != nil {
			log.Warn().Err(err).Str("pool", keys.PoolID).Msg("quality evaluation failed, skipping tick")
			continue
		}

		if !ok {
			if streak > 0 {
				log.Debug().Str("pool", keys.PoolID).Int("streak", streak).Msg("quality streak reset")
			}
			streak = 0
			continue
		}

		streak++
		if streak >= g.required {
			log.Info().Str("pool", keys.PoolID).Int("matches", streak).Msg("✅ pool passed quality gate")
			return true
		}
	}

	log.Debug().Str("pool", keys.PoolID).Int("required", g.required).Msg("quality gate window expired")
	return false
}
