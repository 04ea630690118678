// Package trader orchestrates the position lifecycle: admission, entry
// gating, the retry-bounded buy, exit monitoring, and the retry-bounded
// sell.
//
//	pool discovered → admission → quality gate → entry gate → buy
//	       → exit monitor → sell → P&L report
//
// Every external venue interaction sits behind an interface; this
// package owns only the sequencing, budgets, and bookkeeping.
package trader

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Deskrado/warpSOL/internal/admission"
	"github.com/Deskrado/warpSOL/internal/amm"
	"github.com/Deskrado/warpSOL/internal/config"
	"github.com/Deskrado/warpSOL/internal/entry"
	"github.com/Deskrado/warpSOL/internal/indicators"
	"github.com/Deskrado/warpSOL/internal/market"
	"github.com/Deskrado/warpSOL/internal/monitor"
	"github.com/Deskrado/warpSOL/internal/notify"
	"github.com/Deskrado/warpSOL/internal/quality"
	"github.com/Deskrado/warpSOL/internal/solana"
	"github.com/Deskrado/warpSOL/internal/storage"
	"github.com/Deskrado/warpSOL/internal/submit"
)

// Signer signs compiled transactions as fee payer.
type Signer interface {
	PublicKey() string
	SignTransaction(tx *solana.Transaction)
}

// AccountResolver resolves the wallet's token account for a mint. An
// empty address with a nil error means the account does not exist yet
// and the swap builder must create it.
type AccountResolver interface {
	TokenAccount(ctx context.Context, owner, mint string) (string, error)
}

// Ledger is the slice of RPC surface the pipelines need directly.
type Ledger interface {
	GetTokenAccountBalance(ctx context.Context, account string) (uint64, uint8, error)
	GetTransaction(ctx context.Context, signature string) (*solana.ConfirmedTransaction, error)
	GetLatestBlockhash(ctx context.Context) (string, error)
}

// Trader runs buy and sell pipelines against one configured venue.
type Trader struct {
	cfg *config.Config

	quoter    amm.Quoter
	builder   amm.TxBuilder
	channel   submit.Channel
	admission *admission.Controller
	entryGate *entry.Gate
	quality   *quality.Gate
	monitor   *monitor.Monitor
	pools     market.PoolCache
	allowList market.AllowList
	accounts  AccountResolver
	ledger    Ledger
	signer    Signer
	sink      notify.Sink
	store     *storage.Store
}

// Deps bundles the collaborators wired in by main.
type Deps struct {
	Quoter    amm.Quoter
	Builder   amm.TxBuilder
	Channel   submit.Channel
	Admission *admission.Controller
	EntryGate *entry.Gate
	Quality   *quality.Gate
	Monitor   *monitor.Monitor
	Pools     market.PoolCache
	AllowList market.AllowList
	Accounts  AccountResolver
	Ledger    Ledger
	Signer    Signer
	Sink      notify.Sink
	Store     *storage.Store
}

// New creates a trader.
func New(cfg *config.Config, d Deps) *Trader {
	return &Trader{
		cfg:       cfg,
		quoter:    d.Quoter,
		builder:   d.Builder,
		channel:   d.Channel,
		admission: d.Admission,
		entryGate: d.EntryGate,
		quality:   d.Quality,
		monitor:   d.Monitor,
		pools:     d.Pools,
		allowList: d.AllowList,
		accounts:  d.Accounts,
		ledger:    d.Ledger,
		signer:    d.Signer,
		sink:      d.Sink,
		store:     d.Store,
	}
}

// OnPoolDiscovered runs the buy pipeline for a freshly discovered pool.
// It never returns an error: every failure mode is a logged "did not
// trade" outcome.
func (t *Trader) OnPoolDiscovered(ctx context.Context, ref market.PoolReference) {
	mint := ref.BaseMint

	// Allow-list precondition runs before anything is spent, including
	// the admission slot.
	if t.cfg.AllowListOnly && !t.allowList.IsListed(mint) {
		log.Debug().Str("mint", mint).Msg("mint not on allow list, skipping")
		return
	}

	if t.cfg.PreBuyDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(t.cfg.PreBuyDelay):
		}
	}

	release, err := t.admission.Acquire(ctx)
	if err != nil {
		log.Warn().Err(err).Str("mint", mint).Msg("admission wait aborted")
		return
	}
	defer release()

	keys, tokenAccount, err := t.resolve(ctx, ref)
	if err != nil {
		log.Warn().Err(err).Str("mint", mint).Msg("pool resolution failed, skipping buy")
		return
	}

	// Quality gate applies unless the mint was explicitly allow-listed.
	if !t.cfg.AllowListOnly && !t.quality.Check(ctx, keys) {
		log.Info().Str("mint", mint).Msg("pool declined by quality gate")
		return
	}

	if !t.entryGate.Evaluate(ctx, mint, t.poolPrice(keys)) {
		log.Info().Str("mint", mint).Msg("no entry signal, skipping buy")
		return
	}

	sig, ok := t.buyLoop(ctx, keys, tokenAccount)
	if !ok {
		return
	}

	log.Info().
		Str("mint", mint).
		Str("signature", sig).
		Str("spent", t.cfg.QuoteAmount.String()).
		Msg("🟢 buy confirmed")

	t.sink.Publish(notify.Event{
		Type: notify.EventBuyFilled, Mint: mint, Signature: sig,
		Amount: t.cfg.QuoteAmount, At: time.Now(),
	})
	t.store.RecordFill(storage.Fill{
		Mint: mint, Pool: keys.PoolID, Side: "BUY", Signature: sig,
		Channel: t.channel.Name(), QuoteAmount: t.cfg.QuoteAmount,
	})

	// Ownership of the open position transfers to the exit path.
	if tokenAccount == "" {
		if tokenAccount, err = t.accounts.TokenAccount(ctx, t.signer.PublicKey(), mint); err != nil || tokenAccount == "" {
			log.Error().Err(err).Str("mint", mint).Msg("cannot locate token account after buy, position unmanaged")
			return
		}
	}
	go t.OnBalanceObserved(ctx, mint, tokenAccount)
}

// resolve loads pool keys and the wallet's token account for the base
// mint. The two lookups are independent and run concurrently.
func (t *Trader) resolve(ctx context.Context, ref market.PoolReference) (market.PoolKeys, string, error) {
	var (
		keys         market.PoolKeys
		tokenAccount string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		k, ok := t.pools.Get(ref.PoolID)
		if !ok {
			k, ok = t.pools.Get(ref.MarketID)
		}
		if !ok {
			return fmt.Errorf("pool %s absent from cache", ref.PoolID)
		}
		keys = k
		return nil
	})
	g.Go(func() error {
		acc, err := t.accounts.TokenAccount(gctx, t.signer.PublicKey(), ref.BaseMint)
		if err != nil {
			return fmt.Errorf("resolve token account: %w", err)
		}
		tokenAccount = acc
		return nil
	})
	if err := g.Wait(); err != nil {
		return market.PoolKeys{}, "", err
	}
	return keys, tokenAccount, nil
}

// buyLoop runs the bounded buy retry loop. The wall-clock deadline takes
// precedence over the retry counter: once it elapses the loop aborts
// even with retries remaining.
func (t *Trader) buyLoop(ctx context.Context, keys market.PoolKeys, tokenAccount string) (signature string, ok bool) {
	mint := keys.BaseMint
	deadline := time.Now().Add(t.cfg.BuyDeadline)

	for attempt := 1; attempt <= t.cfg.MaxBuyRetries; attempt++ {
		if !time.Now().Before(deadline) {
			log.Warn().Str("mint", mint).Int("attempt", attempt).Msg("buy deadline elapsed, aborting")
			return "", false
		}

		res := t.attemptBuy(ctx, keys, tokenAccount)
		if res.Confirmed {
			return res.Signature, true
		}
		log.Warn().
			Err(res.Err).
			Str("mint", mint).
			Int("attempt", attempt).
			Int("max", t.cfg.MaxBuyRetries).
			Msg("buy attempt failed")

		if ctx.Err() != nil {
			return "", false
		}
	}

	log.Warn().Str("mint", mint).Msg("buy retries exhausted")
	return "", false
}

// attemptBuy makes one quote → build → sign → submit round trip.
func (t *Trader) attemptBuy(ctx context.Context, keys market.PoolKeys, tokenAccount string) submit.Result {
	quote, err := t.quoter.Quote(ctx, keys, t.cfg.QuoteAmount, keys.BaseMint, t.cfg.BuySlippage)
	if err != nil {
		return submit.Result{Err: fmt.Errorf("quote: %w", err)}
	}

	blockhash, err := t.ledger.GetLatestBlockhash(ctx)
	if err != nil {
		return submit.Result{Err: fmt.Errorf("blockhash: %w", err)}
	}

	tx, err := t.builder.BuildSwap(ctx, amm.SwapParams{
		Keys:               keys,
		Owner:              t.signer.PublicKey(),
		TokenAccount:       tokenAccount,
		Direction:          amm.DirectionBuy,
		AmountIn:           t.cfg.QuoteAmount,
		MinAmountOut:       quote.MinAmountOut,
		RecentBlockhash:    blockhash,
		PriorityFee:        t.priorityFee(),
		CreateTokenAccount: true,
	})
	if err != nil {
		return submit.Result{Err: fmt.Errorf("build swap: %w", err)}
	}

	t.signer.SignTransaction(tx)
	return t.channel.Submit(ctx, tx)
}

// priorityFee returns compute-budget parameters, or nil when the active
// channel supplies its own priority handling.
func (t *Trader) priorityFee() *amm.PriorityFee {
	if t.channel.HandlesPriorityFee() {
		return nil
	}
	return &amm.PriorityFee{
		ComputeUnitLimit: t.cfg.ComputeUnitLimit,
		MicroLamports:    t.cfg.PriorityFee,
	}
}

// poolPrice adapts pool reserves into the entry gate's price feed.
func (t *Trader) poolPrice(keys market.PoolKeys) entry.PriceFunc {
	return func(ctx context.Context) (float64, error) {
		info, err := t.quoter.FetchPoolInfo(ctx, keys)
		if err != nil {
			return 0, err
		}
		if !info.BaseReserve.IsPositive() {
			return 0, fmt.Errorf("pool %s has no base reserve", keys.PoolID)
		}
		return indicators.DecimalToFloat(info.QuoteReserve.Div(info.BaseReserve)), nil
	}
}

// exitValue adapts the sell-side quote into the exit monitor's value
// feed: the quote amount achievable for the held tokens at the
// configured sell slippage.
func (t *Trader) exitValue(keys market.PoolKeys, tokenAmount decimal.Decimal) monitor.ValueFunc {
	return func(ctx context.Context) (decimal.Decimal, error) {
		q, err := t.quoter.Quote(ctx, keys, tokenAmount, t.cfg.QuoteMint, t.cfg.SellSlippage)
		if err != nil {
			return decimal.Zero, err
		}
		return q.MinAmountOut, nil
	}
}
