package solana

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// DecodeKey decodes a base58 public key and checks it is exactly 32 bytes.
func DecodeKey(s string) ([]byte, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode key %q: %w", s, err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("key %q is %d bytes, want 32", s, len(b))
	}
	return b, nil
}

// IsOnCurve reports whether the 32-byte key is a valid ed25519 point. Wallet
// keys are on the curve; program-derived addresses are not.
func IsOnCurve(key []byte) bool {
	if len(key) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(key)
	return err == nil
}
