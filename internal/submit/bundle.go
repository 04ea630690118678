package submit

import (
	"context"
	"fmt"
	"time"

	"github.com/mr-tron/base58"
	"github.com/rs/zerolog/log"

	"github.com/Deskrado/warpSOL/internal/solana"
)

// BundleChannel submits through an accelerated bundle relay. The relay
// prioritizes by tip, so transactions submitted here carry no
// compute-budget instructions and the builder is told to skip them.
type BundleChannel struct {
	relay          *solana.Client // JSON-RPC client pointed at the relay endpoint
	rpc            *solana.Client // ordinary node, used for confirmation only
	confirmTimeout time.Duration
	pollInterval   time.Duration
}

// NewBundleChannel creates the relay channel. relayEndpoint is the
// bundle API; rpc confirms inclusion.
func NewBundleChannel(relayEndpoint string, rpc *solana.Client, confirmTimeout time.Duration) *BundleChannel {
	if confirmTimeout <= 0 {
		confirmTimeout = 20 * time.Second
	}
	return &BundleChannel{
		relay:          solana.NewClient(relayEndpoint),
		rpc:            rpc,
		confirmTimeout: confirmTimeout,
		pollInterval:   500 * time.Millisecond,
	}
}

// Name implements Channel.
func (c *BundleChannel) Name() string { return "bundle" }

// HandlesPriorityFee implements Channel.
func (c *BundleChannel) HandlesPriorityFee() bool { return true }

// Submit wraps the transaction in a single-entry bundle, hands it to the
// relay, and confirms inclusion through the ordinary RPC node.
func (c *BundleChannel) Submit(ctx context.Context, tx *solana.Transaction) Result {
	raw, err := tx.Serialize()
	if err != nil {
		return Result{Err: fmt.Errorf("serialize transaction: %w", err)}
	}
	signature, err := tx.PrimarySignature()
	if err != nil {
		return Result{Err: err}
	}

	params := []interface{}{
		[]string{base58.Encode(raw)},
		map[string]interface{}{"encoding": "base58"},
	}
	var bundleID string
	if err := c.relay.Call(ctx, "sendBundle", params, &bundleID); err != nil {
		return Result{Err: fmt.Errorf("send bundle: %w", err)}
	}

	log.Debug().
		Str("bundle_id", bundleID).
		Str("signature", signature).
		Msg("bundle accepted by relay, awaiting confirmation")

	return awaitConfirmation(ctx, c.rpc, signature, c.confirmTimeout, c.pollInterval)
}
