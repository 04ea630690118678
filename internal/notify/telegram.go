package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Telegram sends lifecycle events to a Telegram chat. Sends run on their
// own goroutine and failures are logged and dropped.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram creates a Telegram sink.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	log.Info().Str("username", api.Self.UserName).Msg("🤖 Telegram notifier initialized")
	return &Telegram{api: api, chatID: chatID}, nil
}

// Publish implements Sink. Fire-and-forget.
func (t *Telegram) Publish(ev Event) {
	go func() {
		msg := tgbotapi.NewMessage(t.chatID, format(ev))
		if _, err := t.api.Send(msg); err != nil {
			log.Warn().Err(err).Str("type", string(ev.Type)).Msg("telegram send failed")
		}
	}()
}

func format(ev Event) string {
	switch ev.Type {
	case EventBuyFilled:
		return fmt.Sprintf("🟢 BUY filled\nmint: %s\nspent: %s\ntx: %s", ev.Mint, ev.Amount.String(), ev.Signature)
	case EventSellFilled, EventTakeProfit, EventStopLoss:
		s := fmt.Sprintf("🔴 SELL filled (%s)\nmint: %s\ntx: %s", ev.Type, ev.Mint, ev.Signature)
		if ev.PnL != nil {
			s += fmt.Sprintf("\npnl: %s", ev.PnL.StringFixed(6))
		}
		return s
	case EventAborted:
		return fmt.Sprintf("⛔ drawdown abort\nmint: %s\nvalue: %s\n%s", ev.Mint, ev.Amount.String(), ev.Detail)
	case EventFloorRaised:
		return fmt.Sprintf("📈 trailing floor raised\nmint: %s\nfloor: %s", ev.Mint, ev.Amount.String())
	case EventGiveUp:
		return fmt.Sprintf("⚠️ retries exhausted\nmint: %s\n%s", ev.Mint, ev.Detail)
	default:
		return fmt.Sprintf("%s %s %s", ev.Type, ev.Mint, ev.Detail)
	}
}
