package submit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Deskrado/warpSOL/internal/solana"
)

// PaperChannel confirms every transaction without touching the ledger.
// Dry-run mode routes both pipelines through it so gating, budgets, and
// monitoring can be exercised against live market data with no money at
// risk.
type PaperChannel struct {
	latency time.Duration
	seq     atomic.Uint64
}

// NewPaperChannel creates the simulated channel. latency approximates
// confirmation time so retry/deadline behavior stays realistic.
func NewPaperChannel(latency time.Duration) *PaperChannel {
	return &PaperChannel{latency: latency}
}

// Name implements Channel.
func (c *PaperChannel) Name() string { return "paper" }

// HandlesPriorityFee implements Channel. Paper fills ignore priority
// entirely, so the builder may skip compute-budget instructions.
func (c *PaperChannel) HandlesPriorityFee() bool { return true }

// Submit implements Channel.
func (c *PaperChannel) Submit(ctx context.Context, tx *solana.Transaction) Result {
	if len(tx.Signatures) == 0 {
		return Result{Err: fmt.Errorf("transaction not signed")}
	}

	if c.latency > 0 {
		select {
		case <-ctx.Done():
			return Result{Err: ctx.Err()}
		case <-time.After(c.latency):
		}
	}

	signature := fmt.Sprintf("paper-%d", c.seq.Add(1))
	log.Info().Str("signature", signature).Msg("📝 paper fill")
	return Result{Confirmed: true, Signature: signature}
}
