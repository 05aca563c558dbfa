package helloworld

import (
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.firedancer.io/loadersim/pkg/accounts"
	"go.firedancer.io/loadersim/pkg/cu"
	"go.firedancer.io/loadersim/pkg/sealevel"
)

func newExecCtx(t *testing.T, datas ...[]byte) (*sealevel.ExecutionCtx, *sealevel.LogRecorder) {
	var instrAccts []sealevel.InstructionAccount
	for _, data := range datas {
		privKey, err := solana.NewRandomPrivateKey()
		require.NoError(t, err)
		acct := accounts.NewAccount(privKey.PublicKey(), 1, data, sealevel.SystemProgramAddr, false, 0)
		instrAccts = append(instrAccts, sealevel.InstructionAccount{Account: acct})
	}

	recorder := new(sealevel.LogRecorder)
	execCtx := sealevel.NewExecutionCtx(recorder, cu.DefaultComputeUnitLimit, 1)
	execCtx.InstrCtx = sealevel.NewInstructionCtx(sealevel.BpfLoaderUpgradeableAddr, instrAccts, nil)
	return execCtx, recorder
}

func TestProcessInstruction_LogsFirstByte(t *testing.T) {
	for _, n := range []byte{0, 1, 123, 255} {
		execCtx, recorder := newExecCtx(t, []byte{9}, []byte{n, 7, 7})
		require.NoError(t, ProcessInstruction(execCtx))
		assert.Equal(t, []string{fmt.Sprintf("Program log: Hello World Rust program entrypoint %d", n)}, recorder.Logs)
	}
}

func TestProcessInstruction_OneAccount(t *testing.T) {
	execCtx, recorder := newExecCtx(t, []byte{1})
	err := ProcessInstruction(execCtx)
	assert.ErrorIs(t, err, sealevel.ErrAccountIndexOutOfRange)
	assert.Empty(t, recorder.Logs)
}

func TestProcessInstruction_EmptyPayload(t *testing.T) {
	execCtx, _ := newExecCtx(t, []byte{1}, nil)
	err := ProcessInstruction(execCtx)
	assert.ErrorIs(t, err, sealevel.InstrErrAccountDataTooSmall)
}

func TestProcessInstruction_ExtraAccountsIgnored(t *testing.T) {
	execCtx, recorder := newExecCtx(t, nil, []byte{5}, []byte{6})
	require.NoError(t, ProcessInstruction(execCtx))
	assert.Equal(t, []string{"Program log: Hello World Rust program entrypoint 5"}, recorder.Logs)
}

func TestParseEntrypointLog(t *testing.T) {
	n, ok := ParseEntrypointLog("Program log: Hello World Rust program entrypoint 234")
	assert.True(t, ok)
	assert.Equal(t, byte(234), n)

	n, ok = ParseEntrypointLog("Hello World Rust program entrypoint 0")
	assert.True(t, ok)
	assert.Equal(t, byte(0), n)

	_, ok = ParseEntrypointLog("Program log: Hello World Rust program entrypoint 256")
	assert.False(t, ok)
	_, ok = ParseEntrypointLog("Program 1111 invoke [1]")
	assert.False(t, ok)
}
