package trader

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Deskrado/warpSOL/internal/amm"
	"github.com/Deskrado/warpSOL/internal/market"
	"github.com/Deskrado/warpSOL/internal/monitor"
	"github.com/Deskrado/warpSOL/internal/notify"
	"github.com/Deskrado/warpSOL/internal/solana"
	"github.com/Deskrado/warpSOL/internal/storage"
	"github.com/Deskrado/warpSOL/internal/submit"
)

// OnBalanceObserved runs the sell pipeline for a token balance held by
// the wallet. The exit monitor decides when to sell during the first
// attempt; subsequent attempts retry the swap without re-evaluating.
func (t *Trader) OnBalanceObserved(ctx context.Context, mint, tokenAccount string) {
	openedAt := time.Now()

	raw, decimals, err := t.ledger.GetTokenAccountBalance(ctx, tokenAccount)
	if err != nil {
		log.Error().Err(err).Str("mint", mint).Msg("balance lookup failed, sell abandoned")
		return
	}
	if raw == 0 {
		log.Warn().Str("mint", mint).Msg("token account holds zero balance, nothing to sell")
		return
	}
	tokenAmount := decimal.New(int64(raw), -int32(decimals))

	keys, ok := t.pools.Get(mint)
	if !ok {
		log.Error().Str("mint", mint).Msg("no pool keys for held mint, sell abandoned")
		return
	}

	// A pending sell counts against the buy budget until it concludes.
	t.admission.AddSell()
	defer t.admission.DoneSell()

	if t.cfg.PreSellDelay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(t.cfg.PreSellDelay):
		}
	}

	entryQuote := t.cfg.QuoteAmount
	exitState := monitor.StateWaiting

	for attempt := 1; attempt <= t.cfg.MaxSellRetries; attempt++ {
		// The exit signal is evaluated exactly once, before the first
		// swap attempt. Retries exist to land the decided sell, not to
		// reconsider it.
		if attempt == 1 {
			verdict := t.monitor.Evaluate(ctx, mint, entryQuote, t.exitValue(keys, tokenAmount))
			exitState = verdict.State
			if !verdict.Sell {
				log.Warn().Str("mint", mint).Msg("exit monitor vetoed sell, position abandoned")
				return
			}
		}

		res := t.attemptSell(ctx, keys, tokenAccount, tokenAmount)
		if res.Confirmed {
			t.monitor.Floors().Clear(mint)
			t.settleClose(ctx, keys, res.Signature, entryQuote, string(exitState), openedAt)
			return
		}
		log.Warn().
			Err(res.Err).
			Str("mint", mint).
			Int("attempt", attempt).
			Int("max", t.cfg.MaxSellRetries).
			Msg("sell attempt failed")

		if ctx.Err() != nil {
			break
		}
	}

	t.monitor.Floors().Clear(mint)
	log.Error().Str("mint", mint).Msg("🔴 sell retries exhausted, tokens remain in wallet")
	t.sink.Publish(notify.Event{
		Type: notify.EventGiveUp, Mint: mint, Amount: tokenAmount,
		Detail: "sell retries exhausted, manual intervention needed", At: time.Now(),
	})
}

// attemptSell makes one quote → build → sign → submit round trip in the
// sell direction. The token account is closed with the swap so dust and
// rent return to the wallet.
func (t *Trader) attemptSell(ctx context.Context, keys market.PoolKeys, tokenAccount string, tokenAmount decimal.Decimal) submit.Result {
	quote, err := t.quoter.Quote(ctx, keys, tokenAmount, t.cfg.QuoteMint, t.cfg.SellSlippage)
	if err != nil {
		return submit.Result{Err: fmt.Errorf("quote: %w", err)}
	}

	blockhash, err := t.ledger.GetLatestBlockhash(ctx)
	if err != nil {
		return submit.Result{Err: fmt.Errorf("blockhash: %w", err)}
	}

	tx, err := t.builder.BuildSwap(ctx, amm.SwapParams{
		Keys:              keys,
		Owner:             t.signer.PublicKey(),
		TokenAccount:      tokenAccount,
		Direction:         amm.DirectionSell,
		AmountIn:          tokenAmount,
		MinAmountOut:      quote.MinAmountOut,
		RecentBlockhash:   blockhash,
		PriorityFee:       t.priorityFee(),
		CloseTokenAccount: true,
	})
	if err != nil {
		return submit.Result{Err: fmt.Errorf("build swap: %w", err)}
	}

	t.signer.SignTransaction(tx)
	return t.channel.Submit(ctx, tx)
}

// settleClose records the confirmed exit and kicks off asynchronous P&L
// accounting. The pipeline result never waits on settlement detail.
func (t *Trader) settleClose(ctx context.Context, keys market.PoolKeys, signature string, entryQuote decimal.Decimal, exitReason string, openedAt time.Time) {
	log.Info().
		Str("mint", keys.BaseMint).
		Str("signature", signature).
		Str("reason", exitReason).
		Msg("🟢 sell confirmed")

	t.store.RecordFill(storage.Fill{
		Mint: keys.BaseMint, Pool: keys.PoolID, Side: "SELL", Signature: signature,
		Channel: t.channel.Name(), QuoteAmount: entryQuote,
	})

	go t.reportPnL(ctx, keys, signature, entryQuote, exitReason, openedAt)
}

// reportPnL fetches the settled transaction and derives realized P&L
// from the wallet's quote-token balance delta. Settlement data can lag
// confirmation, so the lookup is retried briefly.
func (t *Trader) reportPnL(ctx context.Context, keys market.PoolKeys, signature string, entryQuote decimal.Decimal, exitReason string, openedAt time.Time) {
	mint := keys.BaseMint

	var proceeds decimal.Decimal
	found := false
	for attempt := 0; attempt < 5; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
		}

		tx, err := t.ledger.GetTransaction(ctx, signature)
		if err != nil || tx == nil || tx.Meta == nil {
			continue
		}
		proceeds = t.quoteDelta(tx)
		found = true
		break
	}

	ev := notify.Event{
		Type: notify.EventSellFilled, Mint: mint, Signature: signature,
		At: time.Now(),
	}
	if !found {
		log.Warn().Str("signature", signature).Msg("settlement detail unavailable, P&L not computed")
		ev.Detail = "P&L unavailable"
		t.sink.Publish(ev)
		return
	}

	pnl := proceeds.Sub(entryQuote)
	ev.Amount = proceeds
	ev.PnL = &pnl

	emoji := "📈"
	if pnl.IsNegative() {
		emoji = "📉"
	}
	log.Info().
		Str("mint", mint).
		Str("proceeds", proceeds.String()).
		Str("pnl", pnl.String()).
		Msgf("%s position closed (%s)", emoji, exitReason)

	t.sink.Publish(ev)
	t.store.RecordClose(storage.ClosedPosition{
		Mint: mint, Pool: keys.PoolID,
		EntryQuote: entryQuote, ExitQuote: proceeds, PnL: pnl,
		ExitReason: exitReason, OpenedAt: openedAt, ClosedAt: time.Now(),
	})
}

// quoteDelta computes how much of the quote asset the wallet gained in a
// settled transaction, from pre/post token balances.
func (t *Trader) quoteDelta(tx *solana.ConfirmedTransaction) decimal.Decimal {
	owner := t.signer.PublicKey()
	pre := decimal.Zero
	post := decimal.Zero

	for _, b := range tx.Meta.PreTokenBalances {
		if b.Mint == t.cfg.QuoteMint && b.Owner == owner {
			pre = pre.Add(decimal.NewFromFloat(b.UITokenAmount.UIAmount))
		}
	}
	for _, b := range tx.Meta.PostTokenBalances {
		if b.Mint == t.cfg.QuoteMint && b.Owner == owner {
			post = post.Add(decimal.NewFromFloat(b.UITokenAmount.UIAmount))
		}
	}
	return post.Sub(pre)
}
