package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// WSOL, the default quote asset.
const defaultQuoteMint = "So11111111111111111111111111111111111111112"

// Config holds all configuration for the bot. Read-only after Load.
type Config struct {
	// Mode
	Debug  bool
	DryRun bool

	// Solana endpoints
	RPCEndpoint    string
	WSEndpoint     string
	SwapAPIBaseURL string // external swap service (quotes + swap compilation)
	RelayEndpoint  string // bundle relay API, SUBMIT_MODE=bundle only
	SubmitMode     string // "rpc" or "bundle"
	SkipPreflight  bool

	// Wallet
	WalletSecret string // base58 64-byte secret key

	// Quote asset
	QuoteMint     string
	QuoteSymbol   string
	QuoteDecimals uint8

	// Position sizing
	QuoteAmount   decimal.Decimal // fixed quote spent per trade
	MaxConcurrent int

	// Swap execution
	BuySlippage    float64
	SellSlippage   float64
	MaxBuyRetries  int
	MaxSellRetries int
	BuyDeadline    time.Duration // absolute wall-clock budget for one buy
	ConfirmTimeout time.Duration
	PreBuyDelay    time.Duration
	PreSellDelay   time.Duration

	// Priority fees (rpc submission mode)
	ComputeUnitLimit uint32
	PriorityFee      uint64 // microlamports per compute unit

	// Entry signal
	EntryInterval time.Duration
	EntryDuration time.Duration

	// Quality gate
	FilterCheckInterval time.Duration
	FilterCheckDuration time.Duration
	ConsecutiveMatches  int
	MinPoolSize         decimal.Decimal // quote-asset reserve bounds, zero disables
	MaxPoolSize         decimal.Decimal

	// Exit monitoring
	ExitInterval     time.Duration
	ExitDuration     time.Duration
	TakeProfitPct    decimal.Decimal
	StopLossPct      decimal.Decimal
	TrailingStop     bool
	DrawdownAbortPct decimal.Decimal

	// Allow list
	AllowListOnly bool
	AllowList     string // comma-separated mints

	// Discovery
	AMMProgramID string
	PoolCacheMax int

	// Telegram
	TelegramToken  string
	TelegramChatID int64

	// Persistence
	DatabaseDSN string
}

// Load reads configuration from environment variables and validates the
// values the system cannot run without.
func Load() (*Config, error) {
	cfg := &Config{
		Debug:  getEnvBool("DEBUG", false),
		DryRun: getEnvBool("DRY_RUN", false),

		RPCEndpoint:    os.Getenv("RPC_ENDPOINT"),
		WSEndpoint:     os.Getenv("WS_ENDPOINT"),
		SwapAPIBaseURL: os.Getenv("SWAP_API_URL"),
		RelayEndpoint:  os.Getenv("RELAY_ENDPOINT"),
		SubmitMode:     getEnv("SUBMIT_MODE", "rpc"),
		SkipPreflight:  getEnvBool("SKIP_PREFLIGHT", true),

		WalletSecret: os.Getenv("WALLET_SECRET_KEY"),

		QuoteMint:     getEnv("QUOTE_MINT", defaultQuoteMint),
		QuoteSymbol:   getEnv("QUOTE_SYMBOL", "SOL"),
		QuoteDecimals: uint8(getEnvInt("QUOTE_DECIMALS", 9)),

		QuoteAmount:   getEnvDecimal("QUOTE_AMOUNT", decimal.NewFromFloat(0.1)),
		MaxConcurrent: getEnvInt("MAX_CONCURRENT_POSITIONS", 2),

		BuySlippage:    getEnvFloat("BUY_SLIPPAGE", 0.10),
		SellSlippage:   getEnvFloat("SELL_SLIPPAGE", 0.15),
		MaxBuyRetries:  getEnvInt("MAX_BUY_RETRIES", 3),
		MaxSellRetries: getEnvInt("MAX_SELL_RETRIES", 5),
		BuyDeadline:    getEnvDuration("BUY_DEADLINE", 10*time.Second),
		ConfirmTimeout: getEnvDuration("CONFIRM_TIMEOUT", 20*time.Second),
		PreBuyDelay:    getEnvDuration("PRE_BUY_DELAY", 0),
		PreSellDelay:   getEnvDuration("PRE_SELL_DELAY", 0),

		ComputeUnitLimit: uint32(getEnvInt("COMPUTE_UNIT_LIMIT", 120_000)),
		PriorityFee:      uint64(getEnvInt("PRIORITY_FEE_MICROLAMPORTS", 25_000)),

		EntryInterval: getEnvDuration("ENTRY_CHECK_INTERVAL", time.Second),
		EntryDuration: getEnvDuration("ENTRY_CHECK_DURATION", time.Minute),

		FilterCheckInterval: getEnvDuration("FILTER_CHECK_INTERVAL", time.Second),
		FilterCheckDuration: getEnvDuration("FILTER_CHECK_DURATION", 10*time.Second),
		ConsecutiveMatches:  getEnvInt("CONSECUTIVE_FILTER_MATCHES", 3),
		MinPoolSize:         getEnvDecimal("MIN_POOL_SIZE", decimal.Zero),
		MaxPoolSize:         getEnvDecimal("MAX_POOL_SIZE", decimal.Zero),

		ExitInterval:     getEnvDuration("PRICE_CHECK_INTERVAL", 2*time.Second),
		ExitDuration:     getEnvDuration("PRICE_CHECK_DURATION", 10*time.Minute),
		TakeProfitPct:    getEnvDecimal("TAKE_PROFIT", decimal.NewFromFloat(0.20)),
		StopLossPct:      getEnvDecimal("STOP_LOSS", decimal.NewFromFloat(0.10)),
		TrailingStop:     getEnvBool("TRAILING_STOP", true),
		DrawdownAbortPct: getEnvDecimal("DRAWDOWN_ABORT", decimal.Zero),

		AllowListOnly: getEnvBool("ALLOW_LIST_ONLY", false),
		AllowList:     os.Getenv("ALLOW_LIST"),

		AMMProgramID: getEnv("AMM_PROGRAM_ID", "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"),
		PoolCacheMax: getEnvInt("POOL_CACHE_MAX", 512),

		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),

		DatabaseDSN: os.Getenv("DATABASE_DSN"),
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	if cfg.RPCEndpoint == "" {
		return nil, fmt.Errorf("RPC_ENDPOINT is required")
	}
	if cfg.WSEndpoint == "" {
		return nil, fmt.Errorf("WS_ENDPOINT is required")
	}
	if cfg.SwapAPIBaseURL == "" {
		return nil, fmt.Errorf("SWAP_API_URL is required")
	}
	if cfg.WalletSecret == "" {
		return nil, fmt.Errorf("WALLET_SECRET_KEY is required")
	}
	if cfg.SubmitMode != "rpc" && cfg.SubmitMode != "bundle" {
		return nil, fmt.Errorf("SUBMIT_MODE must be rpc or bundle, got %q", cfg.SubmitMode)
	}
	if cfg.SubmitMode == "bundle" && cfg.RelayEndpoint == "" {
		return nil, fmt.Errorf("RELAY_ENDPOINT is required when SUBMIT_MODE=bundle")
	}
	if !cfg.QuoteAmount.IsPositive() {
		return nil, fmt.Errorf("QUOTE_AMOUNT must be positive")
	}
	if cfg.AllowListOnly && cfg.AllowList == "" {
		return nil, fmt.Errorf("ALLOW_LIST is required when ALLOW_LIST_ONLY=true")
	}

	return cfg, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}
