package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"github.com/mr-tron/base58"
)

// Transaction is a wire-level transaction envelope: an opaque, already
// compiled message plus the signatures over it. Message compilation is
// the instruction builder's job; this type only signs and serializes.
type Transaction struct {
	Message    []byte
	Signatures [][]byte
}

// Sign appends a signature over the compiled message.
func (tx *Transaction) Sign(priv ed25519.PrivateKey) {
	tx.Signatures = append(tx.Signatures, ed25519.Sign(priv, tx.Message))
}

// PrimarySignature returns the fee payer's signature in base58, which is
// also the transaction id.
func (tx *Transaction) PrimarySignature() (string, error) {
	if len(tx.Signatures) == 0 {
		return "", fmt.Errorf("transaction is unsigned")
	}
	return base58.Encode(tx.Signatures[0]), nil
}

// Serialize produces the wire format: a compact-u16 signature count,
// the signatures, then the message bytes.
func (tx *Transaction) Serialize() ([]byte, error) {
	if len(tx.Signatures) == 0 {
		return nil, fmt.Errorf("transaction is unsigned")
	}
	out := appendCompactU16(nil, uint16(len(tx.Signatures)))
	for _, sig := range tx.Signatures {
		if len(sig) != ed25519.SignatureSize {
			return nil, fmt.Errorf("signature length %d, want %d", len(sig), ed25519.SignatureSize)
		}
		out = append(out, sig...)
	}
	return append(out, tx.Message...), nil
}

// MarshalBase64 serializes for the sendTransaction base64 encoding.
func (tx *Transaction) MarshalBase64() (string, error) {
	raw, err := tx.Serialize()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// appendCompactU16 appends a shortvec-encoded length.
func appendCompactU16(buf []byte, v uint16) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(buf, b)
		}
		buf = append(buf, b|0x80)
	}
}
