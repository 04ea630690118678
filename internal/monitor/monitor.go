// Package monitor watches an open position and decides when it must be
// sold. Each position gets one bounded polling loop evaluating
// take-profit, stop-loss, trailing-stop and drawdown-abort conditions
// against the currently achievable exit value.
package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Deskrado/warpSOL/internal/notify"
)

// State is the outcome of one monitoring run.
type State string

const (
	StateWaiting    State = "WAITING"
	StateTakeProfit State = "TAKE_PROFIT"
	StateStopLoss   State = "STOP_LOSS"
	StateAborted    State = "ABORTED"
	StateTimedOut   State = "TIMED_OUT"
)

// Verdict is the monitoring decision handed back to the sell pipeline.
// Sell=false only ever means a drawdown abort vetoed the exit.
type Verdict struct {
	State State
	Sell  bool
	Value decimal.Decimal // last observed exit value
}

// ValueFunc fetches the quote amount currently achievable for the held
// token quantity at the configured sell slippage.
type ValueFunc func(ctx context.Context) (decimal.Decimal, error)

// Config bounds and parameterizes the monitoring loop. Percentages are
// fractions (0.2 = 20%). A zero DrawdownAbortPct disables the abort.
type Config struct {
	Interval         time.Duration
	Duration         time.Duration
	TakeProfitPct    decimal.Decimal
	StopLossPct      decimal.Decimal
	TrailingStop     bool
	DrawdownAbortPct decimal.Decimal
}

// Monitor evaluates exit conditions for open positions.
type Monitor struct {
	cfg    Config
	floors *FloorRegistry
	sink   notify.Sink
}

// New creates a monitor sharing one floor registry across positions.
func New(cfg Config, floors *FloorRegistry, sink notify.Sink) *Monitor {
	return &Monitor{cfg: cfg, floors: floors, sink: sink}
}

// Floors exposes the registry so the sell pipeline can clear state once
// a position is closed or abandoned.
func (m *Monitor) Floors() *FloorRegistry {
	return m.floors
}

var one = decimal.NewFromInt(1)

// Evaluate runs the monitoring loop for one position and returns the
// exit verdict. With monitoring disabled (zero interval or duration) it
// signals an immediate sell. Exhausting the loop budget without a
// trigger also signals sell: once monitoring has started, a position is
// never held forever.
func (m *Monitor) Evaluate(ctx context.Context, mint string, initialQuote decimal.Decimal, value ValueFunc) Verdict {
	if m.cfg.Interval <= 0 || m.cfg.Duration <= 0 {
		log.Debug().Str("mint", mint).Msg("price monitoring disabled, selling immediately")
		return Verdict{State: StateWaiting, Sell: true}
	}

	maxIters := int(m.cfg.Duration / m.cfg.Interval)
	if maxIters < 1 {
		maxIters = 1
	}

	takeProfitTarget := initialQuote.Mul(one.Add(m.cfg.TakeProfitPct))
	abortFloor := decimal.Zero
	if m.cfg.DrawdownAbortPct.IsPositive() {
		abortFloor = initialQuote.Mul(one.Sub(m.cfg.DrawdownAbortPct))
	}

	log.Info().
		Str("mint", mint).
		Str("initial", initialQuote.String()).
		Str("take_profit", takeProfitTarget.String()).
		Bool("trailing", m.cfg.TrailingStop).
		Msg("👁 monitoring position")

	last := decimal.Zero
	for iter := 0; iter < maxIters; iter++ {
		if iter > 0 {
			select {
			case <-ctx.Done():
				return Verdict{State: StateTimedOut, Sell: true, Value: last}
			case <-time.After(m.cfg.Interval):
			}
		}

		current, err := value(ctx)
		if err != nil {
			log.Warn().Err(err).Str("mint", mint).Msg("exit value fetch failed, skipping tick")
			continue
		}
		last = current

		// The floor exists from the first successful tick onward.
		floor := m.floors.InitIfAbsent(mint, initialQuote.Mul(one.Sub(m.cfg.StopLossPct)))

		if m.cfg.TrailingStop {
			candidate := current.Mul(one.Sub(m.cfg.StopLossPct))
			if raised, moved := m.floors.Ratchet(mint, candidate); moved {
				floor = raised
				log.Debug().Str("mint", mint).Str("floor", raised.String()).Msg("trailing floor raised")
				m.sink.Publish(notify.Event{
					Type: notify.EventFloorRaised, Mint: mint, Amount: raised, At: time.Now(),
				})
			}
		}

		if abortFloor.IsPositive() && current.LessThan(abortFloor) {
			m.floors.Clear(mint)
			log.Warn().
				Str("mint", mint).
				Str("value", current.String()).
				Str("abort_floor", abortFloor.String()).
				Msg("⛔ drawdown abort, sell vetoed")
			m.sink.Publish(notify.Event{
				Type: notify.EventAborted, Mint: mint, Amount: current,
				Detail: "value fell below drawdown abort threshold", At: time.Now(),
			})
			return Verdict{State: StateAborted, Sell: false, Value: current}
		}

		if current.LessThan(floor) {
			m.floors.Clear(mint)
			log.Info().
				Str("mint", mint).
				Str("value", current.String()).
				Str("floor", floor.String()).
				Msg("🛑 stop loss triggered")
			return Verdict{State: StateStopLoss, Sell: true, Value: current}
		}

		if current.GreaterThan(takeProfitTarget) {
			m.floors.Clear(mint)
			log.Info().
				Str("mint", mint).
				Str("value", current.String()).
				Str("target", takeProfitTarget.String()).
				Msg("💰 take profit triggered")
			return Verdict{State: StateTakeProfit, Sell: true, Value: current}
		}
	}

	log.Info().Str("mint", mint).Str("value", last.String()).Msg("monitoring budget exhausted, selling anyway")
	return Verdict{State: StateTimedOut, Sell: true, Value: last}
}
