// Package pda derives program addresses: 32-byte keys that are off the
// ed25519 curve and therefore have no private key.
package pda

import (
	"errors"

	"filippo.io/edwards25519"
	"github.com/gagliardetto/solana-go"
	"github.com/minio/sha256-simd"
)

const MaxSeeds = 16
const MaxSeedLen = 32
const PdaMarker = "ProgramDerivedAddress"

var (
	ErrSeedLength          = errors.New("Max seeds (16) exceeded")
	ErrOnCurveInvalidSeeds = errors.New("Invalid seeds - generated address must be off-curve")
	ErrNoViableBump        = errors.New("Unable to find a viable program address bump seed")
)

func CreateProgramAddress(seeds [][]byte, programId solana.PublicKey) (solana.PublicKey, error) {
	if len(seeds) > MaxSeeds {
		return solana.PublicKey{}, ErrSeedLength
	}

	hasher := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return solana.PublicKey{}, ErrSeedLength
		}
		hasher.Write(seed)
	}

	hasher.Write(programId[:])
	hasher.Write([]byte(PdaMarker))
	hash := hasher.Sum(nil)

	if IsOnCurve(hash) {
		return solana.PublicKey{}, ErrOnCurveInvalidSeeds
	}

	return solana.PublicKeyFromBytes(hash), nil
}

// FindProgramAddress searches bump seeds from 255 down and returns the first
// off-curve address.
func FindProgramAddress(seeds [][]byte, programId solana.PublicKey) (solana.PublicKey, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return solana.PublicKey{}, 0, ErrSeedLength
	}

	for bump := 255; bump >= 0; bump-- {
		seedsWithBump := append(append([][]byte{}, seeds...), []byte{byte(bump)})
		addr, err := CreateProgramAddress(seedsWithBump, programId)
		if errors.Is(err, ErrOnCurveInvalidSeeds) {
			continue
		} else if err != nil {
			return solana.PublicKey{}, 0, err
		}
		return addr, uint8(bump), nil
	}
	return solana.PublicKey{}, 0, ErrNoViableBump
}

// IsOnCurve checks if 'b' is on the ed25519 curve
func IsOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	onCurve := err == nil
	return onCurve
}
