package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Deskrado/warpSOL/internal/notify"
)

type recordingSink struct {
	mu     sync.Mutex
	events []notify.Event
}

func (s *recordingSink) Publish(ev notify.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) byType(t notify.EventType) []notify.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []notify.Event
	for _, ev := range s.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// valueSeq serves amounts one per tick, repeating the last forever.
func valueSeq(values ...float64) ValueFunc {
	i := 0
	return func(context.Context) (decimal.Decimal, error) {
		v := values[i]
		if i < len(values)-1 {
			i++
		}
		return dec(v), nil
	}
}

func testConfig() Config {
	return Config{
		Interval:      time.Millisecond,
		Duration:      100 * time.Millisecond,
		TakeProfitPct: dec(0.20),
		StopLossPct:   dec(0.10),
	}
}

func TestEvaluateTakeProfit(t *testing.T) {
	floors := NewFloorRegistry()
	m := New(testConfig(), floors, notify.Noop{})

	v := m.Evaluate(context.Background(), "MintTP", dec(1.0), valueSeq(1.0, 1.1, 1.25))

	assert.Equal(t, StateTakeProfit, v.State)
	assert.True(t, v.Sell)
	assert.True(t, v.Value.Equal(dec(1.25)))

	_, ok := floors.Floor("MintTP")
	assert.False(t, ok, "floor must be cleared when the position closes")
}

func TestEvaluateStopLoss(t *testing.T) {
	floors := NewFloorRegistry()
	m := New(testConfig(), floors, notify.Noop{})

	v := m.Evaluate(context.Background(), "MintSL", dec(1.0), valueSeq(1.0, 0.95, 0.89))

	assert.Equal(t, StateStopLoss, v.State)
	assert.True(t, v.Sell)

	_, ok := floors.Floor("MintSL")
	assert.False(t, ok)
}

func TestEvaluateDrawdownAbortVetoesSell(t *testing.T) {
	cfg := testConfig()
	cfg.DrawdownAbortPct = dec(0.50)
	cfg.TrailingStop = true

	floors := NewFloorRegistry()
	sink := &recordingSink{}
	m := New(cfg, floors, sink)

	// 0.4 is below both the stop floor and the abort floor; the abort
	// check runs first and vetoes the sell instead of triggering the
	// stop loss.
	v := m.Evaluate(context.Background(), "MintAB", dec(1.0), valueSeq(1.0, 0.4))

	assert.Equal(t, StateAborted, v.State)
	assert.False(t, v.Sell, "abort means do-not-sell, not stop-loss")

	_, ok := floors.Floor("MintAB")
	assert.False(t, ok, "ratcheted floor must be cleared on abort")
	require.Len(t, sink.byType(notify.EventAborted), 1)
}

func TestEvaluateTrailingFloorRatchetsUpOnly(t *testing.T) {
	cfg := testConfig()
	cfg.TrailingStop = true
	cfg.TakeProfitPct = dec(0.50) // keep take-profit out of the way

	floors := NewFloorRegistry()
	sink := &recordingSink{}
	m := New(cfg, floors, sink)

	// Floor path: init 0.90, ratchet to 1.08 at 1.20, hold through the
	// dip to 1.10, trigger when 1.05 < 1.08.
	v := m.Evaluate(context.Background(), "MintTR", dec(1.0), valueSeq(1.0, 1.2, 1.1, 1.05))

	assert.Equal(t, StateStopLoss, v.State)
	assert.True(t, v.Sell)
	assert.True(t, v.Value.Equal(dec(1.05)), "stopped out above entry thanks to the ratchet")

	raised := sink.byType(notify.EventFloorRaised)
	require.NotEmpty(t, raised)
	prev := decimal.Zero
	for _, ev := range raised {
		require.True(t, ev.Amount.GreaterThanOrEqual(prev), "floor updates must be non-decreasing")
		prev = ev.Amount
	}
	assert.True(t, prev.Equal(dec(1.2).Mul(dec(0.9))))
}

func TestEvaluateDisabledMonitoringSellsImmediately(t *testing.T) {
	cfg := testConfig()
	cfg.Interval = 0

	calls := 0
	m := New(cfg, NewFloorRegistry(), notify.Noop{})
	v := m.Evaluate(context.Background(), "MintOFF", dec(1.0), func(context.Context) (decimal.Decimal, error) {
		calls++
		return dec(1.0), nil
	})

	assert.True(t, v.Sell)
	assert.Equal(t, StateWaiting, v.State)
	assert.Zero(t, calls, "disabled monitoring must not poll at all")
}

func TestEvaluateBudgetExhaustionSellsAnyway(t *testing.T) {
	cfg := testConfig()
	cfg.Duration = 20 * time.Millisecond

	m := New(cfg, NewFloorRegistry(), notify.Noop{})
	v := m.Evaluate(context.Background(), "MintHOLD", dec(1.0), valueSeq(1.0, 1.01, 1.02))

	assert.Equal(t, StateTimedOut, v.State)
	assert.True(t, v.Sell, "exit decisions fail open on budget exhaustion")
}

func TestEvaluateToleratesFetchErrors(t *testing.T) {
	floors := NewFloorRegistry()
	m := New(testConfig(), floors, notify.Noop{})

	fails := 3
	inner := valueSeq(1.0, 1.25)
	v := m.Evaluate(context.Background(), "MintERR", dec(1.0), func(ctx context.Context) (decimal.Decimal, error) {
		if fails > 0 {
			fails--
			return decimal.Zero, errors.New("rpc: pool info unavailable")
		}
		return inner(ctx)
	})

	assert.Equal(t, StateTakeProfit, v.State)
	assert.Zero(t, fails)
}

func TestFloorRegistryLifecycle(t *testing.T) {
	r := NewFloorRegistry()

	_, ok := r.Floor("M")
	assert.False(t, ok)

	got := r.InitIfAbsent("M", dec(0.9))
	assert.True(t, got.Equal(dec(0.9)))

	// Init on an existing key keeps the stored value.
	got = r.InitIfAbsent("M", dec(0.5))
	assert.True(t, got.Equal(dec(0.9)))

	// Ratchet up moves, ratchet down does not.
	got, moved := r.Ratchet("M", dec(1.0))
	assert.True(t, moved)
	assert.True(t, got.Equal(dec(1.0)))
	got, moved = r.Ratchet("M", dec(0.95))
	assert.False(t, moved)
	assert.True(t, got.Equal(dec(1.0)))

	r.Clear("M")
	_, ok = r.Floor("M")
	assert.False(t, ok)
	assert.Zero(t, r.Len())
}
