package sealevel

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.firedancer.io/loadersim/pkg/accounts"
	"go.firedancer.io/loadersim/pkg/cu"
	"go.firedancer.io/loadersim/pkg/features"
	"go.firedancer.io/loadersim/pkg/rent"
)

func echoFirstByteExecutor(execCtx *ExecutionCtx) error {
	acct, err := execCtx.InstrCtx.BorrowInstructionAccount(1)
	if err != nil {
		return err
	}
	if len(acct.Data()) == 0 {
		return InstrErrAccountDataTooSmall
	}
	return ProgramLog(execCtx, fmt.Sprintf("byte %d", acct.Data()[0]))
}

func TestExecutionCtx_ProcessInstruction_PresentsLoadedImage(t *testing.T) {
	r := rent.Default()
	accts := accounts.NewMemAccounts()
	programId := newTestPubkey(t)
	programDataAddr := newTestPubkey(t)
	require.NoError(t, accts.SetAccount(programId, NewProgramAccount(r, programId, programDataAddr)))
	require.NoError(t, accts.SetAccount(programDataAddr, NewProgramDataAccount(r, programDataAddr, 0, nil, []byte{42})))

	var instrAccts []InstructionAccount
	for range 2 {
		instrAcct, err := InstructionAccountFromAccount(accts, programId, false, false)
		require.NoError(t, err)
		instrAccts = append(instrAccts, instrAcct)
	}

	recorder := new(LogRecorder)
	execCtx := NewExecutionCtx(recorder, cu.DefaultComputeUnitLimit, 1)
	err := execCtx.ProcessInstruction(NewProgramCache(features.NewFeaturesDefault()), accts, NewInstructionCtx(programId, instrAccts, nil), echoFirstByteExecutor)
	require.NoError(t, err)

	require.Len(t, recorder.Logs, 4)
	assert.Equal(t, fmt.Sprintf("Program %s invoke [1]", programId), recorder.Logs[0])
	assert.Equal(t, "Program log: byte 42", recorder.Logs[1])
	assert.Equal(t, fmt.Sprintf("Program %s consumed 100 of 200000 compute units", programId), recorder.Logs[2])
	assert.Equal(t, fmt.Sprintf("Program %s success", programId), recorder.Logs[3])

	// the store is untouched
	stored, err := accts.GetAccount(programId)
	require.NoError(t, err)
	assert.Len(t, stored.Data, ProgramRecordSize)
}

func TestExecutionCtx_ProcessInstruction_ExecutorFailure(t *testing.T) {
	r := rent.Default()
	accts := accounts.NewMemAccounts()
	programId := newTestPubkey(t)
	require.NoError(t, accts.SetAccount(programId, NewNonUpgradeableProgramAccount(r, programId, []byte{1})))

	instrAcct, err := InstructionAccountFromAccount(accts, programId, false, false)
	require.NoError(t, err)

	recorder := new(LogRecorder)
	execCtx := NewExecutionCtx(recorder, cu.DefaultComputeUnitLimit, 1)
	err = execCtx.ProcessInstruction(NewProgramCache(features.NewFeaturesDefault()), accts, NewInstructionCtx(programId, []InstructionAccount{instrAcct}, nil), echoFirstByteExecutor)
	assert.ErrorIs(t, err, ErrAccountIndexOutOfRange)
	assert.Equal(t, InstrErrCodeNotEnoughAccountKeys, TranslateErrToInstrErrCode(err))

	require.Len(t, recorder.Logs, 3)
	assert.Equal(t, fmt.Sprintf("Program %s failed: %s", programId, err), recorder.Logs[2])
}

func TestExecutionCtx_ProcessInstruction_NotDeployedYet(t *testing.T) {
	r := rent.Default()
	accts := accounts.NewMemAccounts()
	programId := newTestPubkey(t)
	programDataAddr := newTestPubkey(t)
	require.NoError(t, accts.SetAccount(programId, NewProgramAccount(r, programId, programDataAddr)))
	require.NoError(t, accts.SetAccount(programDataAddr, NewProgramDataAccount(r, programDataAddr, 4, nil, []byte{0})))

	recorder := new(LogRecorder)
	execCtx := NewExecutionCtx(recorder, cu.DefaultComputeUnitLimit, 4)
	err := execCtx.ProcessInstruction(NewProgramCache(features.NewFeaturesDefault()), accts, NewInstructionCtx(programId, nil, nil), func(*ExecutionCtx) error {
		return errors.New("must not run")
	})
	assert.ErrorIs(t, err, ErrDelayedVisibility)
	assert.Equal(t, InstrErrCodeInvalidAccountData, TranslateErrToInstrErrCode(err))
	require.Len(t, recorder.Logs, 3)
	assert.Equal(t, "Program is not deployed", recorder.Logs[1])
}

func TestExecutionCtx_ProcessInstruction_MissingProgram(t *testing.T) {
	recorder := new(LogRecorder)
	execCtx := NewExecutionCtx(recorder, cu.DefaultComputeUnitLimit, 1)
	err := execCtx.ProcessInstruction(NewProgramCache(features.NewFeaturesDefault()), accounts.NewMemAccounts(), NewInstructionCtx(newTestPubkey(t), nil, nil), echoFirstByteExecutor)
	assert.ErrorIs(t, err, ErrProgramAccountNotFound)
	assert.Empty(t, recorder.Logs)
}

func TestProgramLog_ComputeBudget(t *testing.T) {
	recorder := new(LogRecorder)
	execCtx := NewExecutionCtx(recorder, 150, 1)

	require.NoError(t, ProgramLog(execCtx, "a"))
	assert.Equal(t, uint64(100), execCtx.ComputeMeter.Used())

	err := ProgramLog(execCtx, "b")
	assert.ErrorIs(t, err, InstrErrComputationalBudgetExceeded)
	assert.Equal(t, []string{"Program log: a"}, recorder.Logs)
}

func TestInstructionAccountFromAccount_Missing(t *testing.T) {
	key := newTestPubkey(t)
	instrAcct, err := InstructionAccountFromAccount(accounts.NewMemAccounts(), key, true, false)
	require.NoError(t, err)
	assert.Equal(t, key, instrAcct.Account.Key)
	assert.Equal(t, SystemProgramAddr, instrAcct.Account.Owner)
	assert.Empty(t, instrAcct.Account.Data)
	assert.True(t, instrAcct.IsSigner)
}

func TestTranslateErrToInstrErrCode(t *testing.T) {
	assert.Equal(t, InstrErrCodeSuccess, TranslateErrToInstrErrCode(nil))
	assert.Equal(t, InstrErrCodeAccountDataTooSmall, TranslateErrToInstrErrCode(InstrErrAccountDataTooSmall))
	assert.Equal(t, InstrErrCodeInvalidAccountData, TranslateErrToInstrErrCode(fmt.Errorf("%w: %w", InstrErrInvalidAccountData, ErrMalformedLayout)))
	assert.Equal(t, InstrErrCodeGenericError, TranslateErrToInstrErrCode(errors.New("other")))
}
