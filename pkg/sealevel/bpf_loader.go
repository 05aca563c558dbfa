package sealevel

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/loadersim/pkg/accounts"
	"go.firedancer.io/loadersim/pkg/pda"
	"go.firedancer.io/loadersim/pkg/rent"
)

type AccountKind int

const (
	AccountKindPlain AccountKind = iota
	AccountKindNonUpgradeableProgram
	AccountKindProgram
	AccountKindProgramData
	AccountKindBuffer
	AccountKindUninitialized
)

func (k AccountKind) String() string {
	switch k {
	case AccountKindPlain:
		return "Plain"
	case AccountKindNonUpgradeableProgram:
		return "NonUpgradeableProgram"
	case AccountKindProgram:
		return "Program"
	case AccountKindProgramData:
		return "ProgramData"
	case AccountKindBuffer:
		return "Buffer"
	case AccountKindUninitialized:
		return "Uninitialized"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// ClassifyAccount determines how the runtime interprets acct's payload. The
// owner and executable flag pick the candidate layout; an upgradeable loader
// account whose payload does not decode is treated as plain data.
func ClassifyAccount(acct *accounts.Account) (AccountKind, *UpgradeableLoaderState) {
	if IsNonUpgradeableLoader(acct.Owner) && acct.Executable {
		return AccountKindNonUpgradeableProgram, nil
	}

	if acct.Owner != BpfLoaderUpgradeableAddr {
		return AccountKindPlain, nil
	}

	state, err := unmarshalUpgradeableLoaderState(acct.Data)
	if err != nil {
		return AccountKindPlain, nil
	}

	switch state.Type {
	case UpgradeableLoaderStateTypeProgram:
		if acct.Executable && len(acct.Data) == ProgramRecordSize {
			return AccountKindProgram, state
		}
	case UpgradeableLoaderStateTypeProgramData:
		if len(acct.Data) >= ProgramDataHeaderSize {
			return AccountKindProgramData, state
		}
	case UpgradeableLoaderStateTypeBuffer:
		if len(acct.Data) >= BufferHeaderSize {
			return AccountKindBuffer, state
		}
	case UpgradeableLoaderStateTypeUninitialized:
		return AccountKindUninitialized, state
	}

	return AccountKindPlain, nil
}

// ProgramDataAddress is the address the deploy tooling places programId's
// ProgramData at.
func ProgramDataAddress(programId solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := pda.FindProgramAddress([][]byte{programId[:]}, BpfLoaderUpgradeableAddr)
	return addr, err
}

func NewProgramAccount(r rent.Policy, programId solana.PublicKey, programDataAddress solana.PublicKey) *accounts.Account {
	data := EncodeProgram(programDataAddress)
	return accounts.NewAccount(programId, rent.ExemptBalance(r, uint64(len(data))), data, BpfLoaderUpgradeableAddr, true, 0)
}

func NewProgramDataAccount(r rent.Policy, programDataAddress solana.PublicKey, slot uint64, upgradeAuthority *solana.PublicKey, programBytes []byte) *accounts.Account {
	data := EncodeProgramData(slot, upgradeAuthority, programBytes)
	return accounts.NewAccount(programDataAddress, rent.ExemptBalance(r, uint64(len(data))), data, BpfLoaderUpgradeableAddr, true, 0)
}

// NewNonUpgradeableProgramAccount stores programBytes directly in the program
// account, owned by BPF loader v2.
func NewNonUpgradeableProgramAccount(r rent.Policy, programId solana.PublicKey, programBytes []byte) *accounts.Account {
	data := make([]byte, len(programBytes))
	copy(data, programBytes)
	return accounts.NewAccount(programId, rent.ExemptBalance(r, uint64(len(data))), data, BpfLoaderAddr, true, 0)
}

func NewDataAccount(r rent.Policy, key solana.PublicKey, owner solana.PublicKey, executable bool, data []byte) *accounts.Account {
	return accounts.NewAccount(key, rent.ExemptBalance(r, uint64(len(data))), data, owner, executable, 0)
}
