package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/loadersim/pkg/accounts"
)

// InstructionAccount is one entry of an instruction's ordered account list.
// Account is a snapshot taken when the instruction was prepared.
type InstructionAccount struct {
	Account    *accounts.Account
	IsSigner   bool
	IsWritable bool
}

type InstructionCtx struct {
	programId solana.PublicKey
	Accounts  []InstructionAccount
	Data      []byte
}

func NewInstructionCtx(programId solana.PublicKey, instrAccts []InstructionAccount, data []byte) *InstructionCtx {
	return &InstructionCtx{programId: programId, Accounts: instrAccts, Data: data}
}

func (instrCtx *InstructionCtx) ProgramId() solana.PublicKey {
	return instrCtx.programId
}

func (instrCtx *InstructionCtx) NumberOfInstructionAccounts() uint64 {
	return uint64(len(instrCtx.Accounts))
}

func (instrCtx *InstructionCtx) BorrowInstructionAccount(instrAcctIdx uint64) (*BorrowedAccount, error) {
	if instrAcctIdx >= instrCtx.NumberOfInstructionAccounts() {
		return nil, InstrErrNotEnoughAccountKeys
	}

	instrAcct := instrCtx.Accounts[instrAcctIdx]
	return &BorrowedAccount{Account: instrAcct.Account}, nil
}
