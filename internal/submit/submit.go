// Package submit broadcasts signed transactions and confirms their
// inclusion. The pipeline depends only on the Channel capability, never
// on a concrete implementation: plain priority-fee RPC submission and a
// bundled relay are interchangeable here.
package submit

import (
	"context"

	"github.com/Deskrado/warpSOL/internal/solana"
)

// Result is the outcome of one submission attempt. Unconfirmed results
// carry the error that stopped confirmation, if any; the retry loop
// above decides whether to try again.
type Result struct {
	Confirmed bool
	Signature string
	Err       error
}

// Channel broadcasts a signed transaction and reports confirmation
// within a bounded time.
type Channel interface {
	Name() string

	// HandlesPriorityFee reports whether the channel supplies its own
	// transaction priority (e.g. a tipped bundle relay). When true the
	// builder must not add compute-budget instructions.
	HandlesPriorityFee() bool

	Submit(ctx context.Context, tx *solana.Transaction) Result
}
