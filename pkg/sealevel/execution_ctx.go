package sealevel

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/loadersim/pkg/accounts"
	"go.firedancer.io/loadersim/pkg/cu"
	"k8s.io/klog/v2"
)

// Executor runs a loaded program image against the current instruction.
type Executor func(execCtx *ExecutionCtx) error

type ExecutionCtx struct {
	Log          Logger
	ComputeMeter cu.ComputeMeter
	InstrCtx     *InstructionCtx
	Program      *LoadedProgram
	Slot         uint64
}

func NewExecutionCtx(log Logger, computeUnitLimit uint64, slot uint64) *ExecutionCtx {
	return &ExecutionCtx{
		Log:          log,
		ComputeMeter: cu.NewComputeMeter(computeUnitLimit),
		Slot:         slot,
	}
}

// ProcessInstruction resolves the program named by instrCtx through cache at
// the context's slot and runs it with executor. The invoked program's own
// account is presented to it with the image the cache selected, so a program
// observes exactly the version that is executing.
func (execCtx *ExecutionCtx) ProcessInstruction(cache *ProgramCache, accts accounts.Accounts, instrCtx *InstructionCtx, executor Executor) error {
	programId := instrCtx.ProgramId()

	program, err := cache.Load(accts, programId, execCtx.Slot)
	if errors.Is(err, ErrProgramAccountNotFound) {
		return err
	}

	logInvoke(execCtx.Log, programId, 1)
	if err != nil {
		if errors.Is(err, ErrDelayedVisibility) {
			execCtx.Log.Log("Program is not deployed")
		}
		logFailure(execCtx.Log, programId, err)
		return err
	}

	for idx := range instrCtx.Accounts {
		instrAcct := &instrCtx.Accounts[idx]
		if instrAcct.Account.Key == programId {
			view := instrAcct.Account.Clone()
			view.Data = program.ImageCopy()
			instrAcct.Account = view
		}
	}

	execCtx.InstrCtx = instrCtx
	execCtx.Program = program

	computeRemainingPrev := execCtx.ComputeMeter.Remaining()
	err = executor(execCtx)
	computeUnitsConsumed := computeRemainingPrev - execCtx.ComputeMeter.Remaining()
	logConsumed(execCtx.Log, programId, computeUnitsConsumed, computeRemainingPrev)

	if err != nil {
		klog.V(2).Infof("program %s failed at slot %d: %s", programId, execCtx.Slot, err)
		logFailure(execCtx.Log, programId, err)
		return err
	}

	logSuccess(execCtx.Log, programId)
	return nil
}

// InstructionAccountFromAccount builds an instruction account entry for key.
// Missing accounts are presented as empty system-owned accounts, as a
// runtime loading a transaction would.
func InstructionAccountFromAccount(accts accounts.Accounts, key solana.PublicKey, isSigner, isWritable bool) (InstructionAccount, error) {
	acct, err := accts.GetAccount(key)
	if errors.Is(err, accounts.ErrAccountNotFound) {
		acct = accounts.NewAccount(key, 0, nil, SystemProgramAddr, false, 0)
	} else if err != nil {
		return InstructionAccount{}, err
	}

	return InstructionAccount{Account: acct, IsSigner: isSigner, IsWritable: isWritable}, nil
}
