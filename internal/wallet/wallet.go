package wallet

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/Deskrado/warpSOL/internal/solana"
)

// Wallet holds the trading keypair. It is the custody boundary: nothing
// outside this package touches the private key.
type Wallet struct {
	priv   ed25519.PrivateKey
	pubkey string
}

// FromBase58 loads a wallet from a base58-encoded 64-byte secret key
// (the standard Solana CLI export format).
func FromBase58(secret string) (*Wallet, error) {
	raw, err := base58.Decode(secret)
	if err != nil {
		return nil, fmt.Errorf("decode secret key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("secret key length %d, want %d", len(raw), ed25519.PrivateKeySize)
	}
	priv := ed25519.PrivateKey(raw)
	pub := priv.Public().(ed25519.PublicKey)
	return &Wallet{
		priv:   priv,
		pubkey: base58.Encode(pub),
	}, nil
}

// PublicKey returns the base58 wallet address.
func (w *Wallet) PublicKey() string {
	return w.pubkey
}

// SignTransaction signs a compiled transaction as fee payer.
func (w *Wallet) SignTransaction(tx *solana.Transaction) {
	tx.Sign(w.priv)
}
