package bank

import (
	"github.com/gagliardetto/solana-go"
	"github.com/minio/sha256-simd"
	"github.com/samber/lo"
	"go.firedancer.io/loadersim/pkg/util"
)

const merkleFanout = 16

func divCeil(x uint64, y uint64) uint64 {
	result := x / y
	if (x % y) != 0 {
		result++
	}
	return result
}

func computeMerkleRootLoop(acctHashes [][]byte) []byte {
	if len(acctHashes) == 0 {
		return nil
	}

	totalHashes := uint64(len(acctHashes))
	chunks := divCeil(totalHashes, merkleFanout)

	results := make([][]byte, chunks)

	for i := uint64(0); i < chunks; i++ {
		startIdx := i * merkleFanout
		endIdx := min(startIdx+merkleFanout, totalHashes)

		hasher := sha256.New()
		for _, h := range acctHashes[startIdx:endIdx] {
			hasher.Write(h)
		}

		results[i] = hasher.Sum(nil)
	}

	if len(results) == 1 {
		return results[0]
	}
	return computeMerkleRootLoop(results)
}

// AccountHash is the blake3 hash of the stored state of key.
func (b *Bank) AccountHash(key solana.PublicKey) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acct, err := b.accts.GetAccount(key)
	if err != nil {
		return nil, err
	}
	return util.CalculateAcctHash(acct), nil
}

// AccountsHash is a merkle root over the hashes of every account written
// through the bank, ordered by pubkey. Simulation never changes it.
func (b *Bank) AccountsHash() (solana.Hash, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	keys := util.DedupePubkeys(lo.Keys(b.keys))

	hashes := make([][]byte, 0, len(keys))
	for _, key := range keys {
		acct, err := b.accts.GetAccount(key)
		if err != nil {
			return solana.Hash{}, err
		}
		hashes = append(hashes, util.CalculateAcctHash(acct))
	}

	return solana.HashFromBytes(computeMerkleRootLoop(hashes)), nil
}
