package trader

import (
	"context"

	"github.com/Deskrado/warpSOL/internal/solana"
)

// RPCAccountResolver resolves token accounts through the RPC node. A
// mint the wallet has never held resolves to the empty string; the swap
// builder then creates the associated account inside the buy
// transaction.
type RPCAccountResolver struct {
	RPC *solana.Client
}

// TokenAccount implements AccountResolver.
func (r RPCAccountResolver) TokenAccount(ctx context.Context, owner, mint string) (string, error) {
	accounts, err := r.RPC.GetTokenAccountsByOwner(ctx, owner, mint)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", nil
	}
	return accounts[0], nil
}
