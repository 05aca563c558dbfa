package pda

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindProgramAddress_MatchesSolanaGo(t *testing.T) {
	privKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	programId := privKey.PublicKey()
	loader := solana.BPFLoaderUpgradeableProgramID

	addr, bump, err := FindProgramAddress([][]byte{programId[:]}, loader)
	require.NoError(t, err)

	expectedAddr, expectedBump, err := solana.FindProgramAddress([][]byte{programId[:]}, loader)
	require.NoError(t, err)
	assert.Equal(t, expectedAddr, addr)
	assert.Equal(t, expectedBump, bump)
	assert.False(t, IsOnCurve(addr[:]))
}

func TestCreateProgramAddress_SeedLimits(t *testing.T) {
	_, err := CreateProgramAddress([][]byte{make([]byte, MaxSeedLen+1)}, solana.SystemProgramID)
	assert.ErrorIs(t, err, ErrSeedLength)

	_, err = CreateProgramAddress(make([][]byte, MaxSeeds+1), solana.SystemProgramID)
	assert.ErrorIs(t, err, ErrSeedLength)
}

func TestIsOnCurve(t *testing.T) {
	privKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	pubkey := privKey.PublicKey()
	assert.True(t, IsOnCurve(pubkey[:]))
}
