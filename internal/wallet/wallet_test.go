package wallet

import (
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Deskrado/warpSOL/internal/solana"
)

func TestFromBase58RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	w, err := FromBase58(base58.Encode(priv))
	require.NoError(t, err)
	assert.Equal(t, base58.Encode(pub), w.PublicKey())
}

func TestFromBase58RejectsBadInput(t *testing.T) {
	_, err := FromBase58("not-base58-0OIl")
	assert.Error(t, err)

	// A 32-byte seed is not the CLI's 64-byte secret format.
	_, err = FromBase58(base58.Encode(make([]byte, 32)))
	assert.Error(t, err)
}

func TestSignTransaction(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	w, err := FromBase58(base58.Encode(priv))
	require.NoError(t, err)

	tx := &solana.Transaction{Message: []byte("compiled-swap-message")}
	w.SignTransaction(tx)

	require.Len(t, tx.Signatures, 1)
	assert.True(t, ed25519.Verify(pub, tx.Message, tx.Signatures[0]))

	sig, err := tx.PrimarySignature()
	require.NoError(t, err)
	assert.Equal(t, base58.Encode(tx.Signatures[0]), sig)
}
