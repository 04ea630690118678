// Package notify publishes trade lifecycle events. Publication is
// best-effort and non-blocking: a dead notifier must never stall or fail
// a trading pipeline.
package notify

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType classifies a lifecycle event.
type EventType string

const (
	EventBuyFilled   EventType = "BUY_FILLED"
	EventSellFilled  EventType = "SELL_FILLED"
	EventTakeProfit  EventType = "TAKE_PROFIT"
	EventStopLoss    EventType = "STOP_LOSS"
	EventAborted     EventType = "DRAWDOWN_ABORT"
	EventFloorRaised EventType = "FLOOR_RAISED"
	EventGiveUp      EventType = "RETRIES_EXHAUSTED"
)

// Event is one lifecycle notification.
type Event struct {
	Type      EventType
	Mint      string
	Signature string
	Amount    decimal.Decimal  // quote amount involved
	PnL       *decimal.Decimal // realized P&L, sell side only
	Detail    string
	At        time.Time
}

// Sink receives events. Implementations swallow their own failures.
type Sink interface {
	Publish(ev Event)
}

// Noop discards all events. Used when no notifier is configured and in
// tests.
type Noop struct{}

// Publish implements Sink.
func (Noop) Publish(Event) {}
