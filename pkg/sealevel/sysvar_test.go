package sealevel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.firedancer.io/loadersim/pkg/accounts"
	"go.firedancer.io/loadersim/pkg/rent"
)

func TestClockSysvar_WriteRead(t *testing.T) {
	accts := accounts.NewMemAccounts()
	clock := &SysvarClock{Slot: 7, EpochStartTimestamp: -1, Epoch: 0, LeaderScheduleEpoch: 1, UnixTimestamp: 1700000000}
	require.NoError(t, WriteClockSysvar(accts, rent.Default(), clock))

	acct, err := accts.GetAccount(SysvarClockAddr)
	require.NoError(t, err)
	assert.Len(t, acct.Data, SysvarClockStructLen)
	assert.Equal(t, SysvarOwnerAddr, acct.Owner)

	read, err := ReadClockSysvar(accts)
	require.NoError(t, err)
	assert.Equal(t, clock, read)
}

func TestClockSysvar_Missing(t *testing.T) {
	_, err := ReadClockSysvar(accounts.NewMemAccounts())
	assert.ErrorIs(t, err, accounts.ErrAccountNotFound)
}

func TestRentSysvar_WriteRead(t *testing.T) {
	accts := accounts.NewMemAccounts()
	require.NoError(t, WriteRentSysvar(accts, rent.Default()))

	acct, err := accts.GetAccount(SysvarRentAddr)
	require.NoError(t, err)
	assert.Len(t, acct.Data, rent.SysvarRentStructLen)

	r, err := ReadRentSysvar(accts)
	require.NoError(t, err)
	assert.Equal(t, rent.Default(), r)
}
