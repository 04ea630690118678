// Package amm declares the contracts this bot expects from its AMM
// collaborators: pool pricing and swap transaction construction. The
// pricing math and instruction layout live behind these interfaces;
// the trading pipeline depends only on the shapes below.
package amm

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Deskrado/warpSOL/internal/market"
	"github.com/Deskrado/warpSOL/internal/solana"
)

// Quote is the result of pricing a swap against current pool reserves.
type Quote struct {
	AmountOut    decimal.Decimal // expected output at current reserves
	MinAmountOut decimal.Decimal // output floor after applying slippage
}

// PoolInfo is a snapshot of pool reserves.
type PoolInfo struct {
	BaseReserve  decimal.Decimal
	QuoteReserve decimal.Decimal
	Status       uint64
}

// Quoter prices swaps against a pool.
type Quoter interface {
	// Quote prices amountIn of the input side for the given output mint
	// at the given slippage tolerance.
	Quote(ctx context.Context, keys market.PoolKeys, amountIn decimal.Decimal, outMint string, slippage float64) (Quote, error)

	// FetchPoolInfo returns current reserves.
	FetchPoolInfo(ctx context.Context, keys market.PoolKeys) (PoolInfo, error)
}

// Direction is the side of a swap.
type Direction int

const (
	DirectionBuy  Direction = iota // quote in, base out
	DirectionSell                  // base in, quote out
)

// PriorityFee parameterizes compute-budget instructions. A nil
// PriorityFee in SwapParams means the submission channel supplies its
// own priority handling and the builder must not add them.
type PriorityFee struct {
	ComputeUnitLimit uint32
	MicroLamports    uint64
}

// SwapParams is everything the builder needs to compile a swap message.
type SwapParams struct {
	Keys            market.PoolKeys
	Owner           string // wallet address, fee payer
	TokenAccount    string // base-asset token account (destination on buy, source on sell)
	Direction       Direction
	AmountIn        decimal.Decimal
	MinAmountOut    decimal.Decimal
	RecentBlockhash string
	PriorityFee     *PriorityFee

	// CreateTokenAccount adds an idempotent associated-token-account
	// creation for the destination (buy side).
	CreateTokenAccount bool

	// CloseTokenAccount closes the source token account in the same
	// transaction (sell side).
	CloseTokenAccount bool
}

// TxBuilder compiles swap parameters into a signable transaction message.
type TxBuilder interface {
	BuildSwap(ctx context.Context, params SwapParams) (*solana.Transaction, error)
}
