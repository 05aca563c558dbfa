package bank

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"
	"go.firedancer.io/loadersim/pkg/accounts"
	"go.firedancer.io/loadersim/pkg/sealevel"
	"k8s.io/klog/v2"
)

// transaction errors
var (
	TxErrBlockhashNotFound        = errors.New("TxErrBlockhashNotFound")
	TxErrAccountNotFound          = errors.New("TxErrAccountNotFound")
	TxErrProgramAccountNotFound   = errors.New("TxErrProgramAccountNotFound")
	TxErrSanitizeFailure          = errors.New("TxErrSanitizeFailure")
	TxErrInvalidAccountForFee     = errors.New("TxErrInvalidAccountForFee")
	TxErrMissingSignatureForFee   = errors.New("TxErrMissingSignatureForFee")
	TxErrNoInstructionsToSimulate = errors.New("TxErrNoInstructionsToSimulate")
)

type TxErrInvalidSignature struct {
	msg string
}

func NewTxErrInvalidSignature(msg string) error {
	return &TxErrInvalidSignature{msg: msg}
}

func (err *TxErrInvalidSignature) Error() string {
	return err.msg
}

// InstructionError is a failed instruction within a transaction.
type InstructionError struct {
	Index int
	Err   error
}

func (err *InstructionError) Error() string {
	return fmt.Sprintf("instruction %d failed: %s", err.Index, err.Err)
}

func (err *InstructionError) Unwrap() error {
	return err.Err
}

// Code is the Solana numerical instruction error code.
func (err *InstructionError) Code() int {
	return sealevel.TranslateErrToInstrErrCode(err.Err)
}

// SimulationResult is the outcome of a simulated transaction. A failed
// transaction is reported through Err; its logs are kept.
type SimulationResult struct {
	Err           error
	Logs          []string
	UnitsConsumed uint64
	Slot          uint64
}

func (res *SimulationResult) Success() bool {
	return res.Err == nil
}

// InstructionError returns the failed instruction, if any.
func (res *SimulationResult) InstructionError() (*InstructionError, bool) {
	var instrErr *InstructionError
	if errors.As(res.Err, &instrErr) {
		return instrErr, true
	}
	return nil, false
}

// NewTransaction builds a single-instruction transaction invoking programId
// with keys as its read-only, non-signer accounts, signed by the bank's payer
// against the latest blockhash.
func (b *Bank) NewTransaction(programId solana.PublicKey, keys ...solana.PublicKey) (*solana.Transaction, error) {
	acctMetas := lo.Map(keys, func(key solana.PublicKey, _ int) *solana.AccountMeta {
		return solana.Meta(key)
	})
	instr := solana.NewInstruction(programId, acctMetas, nil)

	payer := b.Payer()
	tx, err := solana.NewTransaction([]solana.Instruction{instr}, b.LastBlockhash(), solana.TransactionPayer(payer.PublicKey()))
	if err != nil {
		return nil, err
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key == payer.PublicKey() {
			return &payer
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// Simulate executes tx against the current account set at the current slot.
// Account state is never written back. The returned error is reserved for
// context cancellation and store failures; a failed transaction is a
// successful simulation with a non-nil SimulationResult.Err.
func (b *Bank) Simulate(ctx context.Context, tx *solana.Transaction) (*SimulationResult, error) {
	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	res := &SimulationResult{Slot: b.slot}
	err = b.simulate(ctx, tx, res)

	var txErr *txError
	if errors.As(err, &txErr) {
		res.Err = txErr.err
		err = nil
	}
	if err != nil {
		return nil, err
	}

	b.cfg.Metrics.TransactionSimulated(res.Success(), res.UnitsConsumed)
	if res.Err != nil {
		klog.V(2).Infof("simulated transaction failed at slot %d: %s", res.Slot, res.Err)
	}
	return res, nil
}

// txError marks errors that fail the transaction rather than the simulation.
type txError struct {
	err error
}

func (e *txError) Error() string {
	return e.err.Error()
}

func failTx(err error) error {
	return &txError{err: err}
}

func (b *Bank) simulate(ctx context.Context, tx *solana.Transaction, res *SimulationResult) error {
	err := sanitize(tx)
	if err != nil {
		return failTx(err)
	}

	err = tx.VerifySignatures()
	if err != nil {
		return failTx(NewTxErrInvalidSignature(err.Error()))
	}

	if !b.isRecentBlockhash(tx.Message.RecentBlockhash) {
		return failTx(TxErrBlockhashNotFound)
	}

	feePayer := tx.Message.AccountKeys[0]
	payerAcct, err := b.accts.GetAccount(feePayer)
	if errors.Is(err, accounts.ErrAccountNotFound) {
		return failTx(TxErrAccountNotFound)
	} else if err != nil {
		return err
	}
	if payerAcct.Owner != sealevel.SystemProgramAddr {
		return failTx(TxErrInvalidAccountForFee)
	}

	programIds, err := tx.GetProgramIDs()
	if err != nil {
		return failTx(fmt.Errorf("%w: %w", TxErrSanitizeFailure, err))
	}

	var log sealevel.LogRecorder
	execCtx := sealevel.NewExecutionCtx(&log, b.cfg.ComputeUnitLimit, b.slot)
	defer func() {
		res.Logs = log.Logs
		res.UnitsConsumed = execCtx.ComputeMeter.Used()
	}()

	for instrIdx, compiledInstr := range tx.Message.Instructions {
		err = ctx.Err()
		if err != nil {
			return err
		}

		programId, err := tx.ResolveProgramIDIndex(compiledInstr.ProgramIDIndex)
		if err != nil {
			return failTx(fmt.Errorf("%w: %w", TxErrSanitizeFailure, err))
		}

		acctMetas, err := compiledInstr.ResolveInstructionAccounts(&tx.Message)
		if err != nil {
			return failTx(fmt.Errorf("%w: %w", TxErrSanitizeFailure, err))
		}

		instrAccts := make([]sealevel.InstructionAccount, 0, len(acctMetas))
		for _, am := range acctMetas {
			isWritable := am.IsWritable && !lo.Contains(programIds, am.PublicKey)
			instrAcct, err := sealevel.InstructionAccountFromAccount(b.accts, am.PublicKey, am.IsSigner, isWritable)
			if err != nil {
				return err
			}
			instrAccts = append(instrAccts, instrAcct)
		}

		instrCtx := sealevel.NewInstructionCtx(programId, instrAccts, compiledInstr.Data)
		err = execCtx.ProcessInstruction(b.cache, b.accts, instrCtx, b.cfg.Executor)
		if errors.Is(err, sealevel.ErrProgramAccountNotFound) {
			return failTx(TxErrProgramAccountNotFound)
		}
		if err != nil {
			return failTx(&InstructionError{Index: instrIdx, Err: err})
		}
	}

	return nil
}

func sanitize(tx *solana.Transaction) error {
	if len(tx.Message.Instructions) == 0 {
		return TxErrNoInstructionsToSimulate
	}
	if len(tx.Message.AccountKeys) == 0 || tx.Message.Header.NumRequiredSignatures == 0 {
		return TxErrMissingSignatureForFee
	}
	if len(tx.Signatures) != int(tx.Message.Header.NumRequiredSignatures) {
		return fmt.Errorf("%w: %d signatures for %d required signers", TxErrSanitizeFailure, len(tx.Signatures), tx.Message.Header.NumRequiredSignatures)
	}
	return nil
}
