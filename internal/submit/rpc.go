package submit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Deskrado/warpSOL/internal/solana"
)

// RPCChannel submits through an ordinary RPC node. Priority comes from
// compute-budget instructions inside the transaction, so the builder
// must add them for this channel.
type RPCChannel struct {
	client         *solana.Client
	skipPreflight  bool
	confirmTimeout time.Duration
	pollInterval   time.Duration
}

// NewRPCChannel creates the plain submission channel.
func NewRPCChannel(client *solana.Client, skipPreflight bool, confirmTimeout time.Duration) *RPCChannel {
	if confirmTimeout <= 0 {
		confirmTimeout = 20 * time.Second
	}
	return &RPCChannel{
		client:         client,
		skipPreflight:  skipPreflight,
		confirmTimeout: confirmTimeout,
		pollInterval:   500 * time.Millisecond,
	}
}

// Name implements Channel.
func (c *RPCChannel) Name() string { return "rpc" }

// HandlesPriorityFee implements Channel.
func (c *RPCChannel) HandlesPriorityFee() bool { return false }

// Submit broadcasts the transaction and polls signature status until it
// confirms, fails, or the confirmation window closes.
func (c *RPCChannel) Submit(ctx context.Context, tx *solana.Transaction) Result {
	encoded, err := tx.MarshalBase64()
	if err != nil {
		return Result{Err: fmt.Errorf("serialize transaction: %w", err)}
	}

	signature, err := c.client.SendTransaction(ctx, encoded, c.skipPreflight)
	if err != nil {
		return Result{Err: fmt.Errorf("send transaction: %w", err)}
	}

	log.Debug().Str("signature", signature).Msg("transaction sent, awaiting confirmation")
	return awaitConfirmation(ctx, c.client, signature, c.confirmTimeout, c.pollInterval)
}

// awaitConfirmation polls a signature until it confirms or the window
// closes. Shared by both channels.
func awaitConfirmation(ctx context.Context, client *solana.Client, signature string, timeout, interval time.Duration) Result {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		status, err := client.GetSignatureStatus(ctx, signature)
		if err != nil {
			log.Debug().Err(err).Str("signature", signature).Msg("status poll failed")
		} else if status != nil {
			if status.Err != nil {
				return Result{
					Signature: signature,
					Err:       fmt.Errorf("transaction failed on chain: %v", status.Err),
				}
			}
			if status.ConfirmationStatus == "confirmed" || status.ConfirmationStatus == "finalized" {
				return Result{Confirmed: true, Signature: signature}
			}
		}

		select {
		case <-ctx.Done():
			return Result{Signature: signature, Err: ctx.Err()}
		case <-time.After(interval):
		}
	}

	return Result{Signature: signature, Err: fmt.Errorf("confirmation window expired")}
}
