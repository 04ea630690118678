package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Deskrado/warpSOL/internal/admission"
	"github.com/Deskrado/warpSOL/internal/config"
	"github.com/Deskrado/warpSOL/internal/discovery"
	"github.com/Deskrado/warpSOL/internal/entry"
	"github.com/Deskrado/warpSOL/internal/market"
	"github.com/Deskrado/warpSOL/internal/monitor"
	"github.com/Deskrado/warpSOL/internal/notify"
	"github.com/Deskrado/warpSOL/internal/quality"
	"github.com/Deskrado/warpSOL/internal/solana"
	"github.com/Deskrado/warpSOL/internal/storage"
	"github.com/Deskrado/warpSOL/internal/submit"
	"github.com/Deskrado/warpSOL/internal/swapapi"
	"github.com/Deskrado/warpSOL/internal/trader"
	"github.com/Deskrado/warpSOL/internal/wallet"
)

func main() {
	// ═══════════════════════════════════════════════════════════════════════════════
	// BOOTSTRAP
	// ═══════════════════════════════════════════════════════════════════════════════

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Info().Msg("═══════════════════════════════════════════════════════════════")
	log.Info().Msg("                    WARPSOL - POOL SNIPER")
	log.Info().Msg("═══════════════════════════════════════════════════════════════")

	// ═══════════════════════════════════════════════════════════════════════════════
	// INITIALIZE COMPONENTS
	// ═══════════════════════════════════════════════════════════════════════════════

	// 1. Wallet
	w, err := wallet.FromBase58(cfg.WalletSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load wallet")
	}
	log.Info().Str("address", w.PublicKey()).Msg("✅ Wallet loaded")

	// 2. RPC + swap service clients
	rpc := solana.NewClient(cfg.RPCEndpoint)
	swap := swapapi.NewClient(cfg.SwapAPIBaseURL)
	log.Info().Msg("✅ RPC and swap clients initialized")

	// 3. Submission channel
	var channel submit.Channel
	switch {
	case cfg.DryRun:
		channel = submit.NewPaperChannel(400 * time.Millisecond)
	case cfg.SubmitMode == "bundle":
		channel = submit.NewBundleChannel(cfg.RelayEndpoint, rpc, cfg.ConfirmTimeout)
	default:
		channel = submit.NewRPCChannel(rpc, cfg.SkipPreflight, cfg.ConfirmTimeout)
	}
	log.Info().Str("channel", channel.Name()).Msg("✅ Submission channel initialized")

	// 4. Storage
	store, err := storage.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}

	// 5. Notifications
	var sink notify.Sink = notify.Noop{}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Warn().Err(err).Msg("Telegram setup failed, continuing without notifications")
		} else {
			sink = tg
			log.Info().Msg("✅ Telegram notifications enabled")
		}
	}

	// 6. Trading components
	pools := market.NewMemoryPoolCache(cfg.PoolCacheMax)
	ctrl := admission.New(cfg.MaxConcurrent)
	entryGate := entry.NewGate(cfg.EntryInterval, cfg.EntryDuration)
	qualityGate := quality.NewGate(
		quality.NewReserveEvaluator(swap, cfg.MinPoolSize, cfg.MaxPoolSize),
		cfg.FilterCheckInterval, cfg.FilterCheckDuration, cfg.ConsecutiveMatches,
	)
	exitMonitor := monitor.New(monitor.Config{
		Interval:         cfg.ExitInterval,
		Duration:         cfg.ExitDuration,
		TakeProfitPct:    cfg.TakeProfitPct,
		StopLossPct:      cfg.StopLossPct,
		TrailingStop:     cfg.TrailingStop,
		DrawdownAbortPct: cfg.DrawdownAbortPct,
	}, monitor.NewFloorRegistry(), sink)

	bot := trader.New(cfg, trader.Deps{
		Quoter:    swap,
		Builder:   swap,
		Channel:   channel,
		Admission: ctrl,
		EntryGate: entryGate,
		Quality:   qualityGate,
		Monitor:   exitMonitor,
		Pools:     pools,
		AllowList: market.NewStaticAllowList(cfg.AllowList),
		Accounts:  trader.RPCAccountResolver{RPC: rpc},
		Ledger:    rpc,
		Signer:    w,
		Sink:      sink,
		Store:     store,
	})
	log.Info().
		Int("max_positions", cfg.MaxConcurrent).
		Str("quote_amount", cfg.QuoteAmount.String()).
		Str("quote", cfg.QuoteSymbol).
		Bool("trailing_stop", cfg.TrailingStop).
		Bool("allow_list_only", cfg.AllowListOnly).
		Msg("✅ Trader initialized")

	// ═══════════════════════════════════════════════════════════════════════════════
	// START
	// ═══════════════════════════════════════════════════════════════════════════════

	ctx, cancel := context.WithCancel(context.Background())

	feed := discovery.NewFeed(cfg.WSEndpoint, cfg.AMMProgramID, cfg.QuoteMint, pools, bot.OnPoolDiscovered)
	feed.Start(ctx)

	if cfg.DryRun {
		log.Info().Msg("🚀 Running in PAPER TRADING mode")
	} else {
		log.Info().Msg("🚀 Running in LIVE TRADING mode")
	}

	// ═══════════════════════════════════════════════════════════════════════════════
	// GRACEFUL SHUTDOWN
	// ═══════════════════════════════════════════════════════════════════════════════

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("🛑 Shutting down...")
	cancel()
	feed.Wait()

	log.Info().Msg("👋 Goodbye!")
}
