// Package base58 wraps github.com/mr-tron/base58 for 32-byte Solana addresses.
package base58

import (
	"fmt"

	"github.com/mr-tron/base58"
)

func Encode(b []byte) string {
	return base58.Encode(b)
}

// DecodeFromString decodes a base58 string that must hold exactly 32 bytes.
func DecodeFromString(s string) ([32]byte, error) {
	var out [32]byte

	b, err := base58.Decode(s)
	if err != nil {
		return out, fmt.Errorf("invalid base58 string %q: %w", s, err)
	}
	if len(b) != len(out) {
		return out, fmt.Errorf("invalid address %q: decoded to %d bytes, expected 32", s, len(b))
	}

	copy(out[:], b)
	return out, nil
}

func MustDecodeFromString(s string) [32]byte {
	out, err := DecodeFromString(s)
	if err != nil {
		panic(err)
	}
	return out
}
