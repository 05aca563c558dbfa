package sealevel

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/loadersim/pkg/cu"
)

const ProgramLogPrefix = "Program log: "

type Logger interface {
	Log(s string)
}

type LogRecorder struct {
	Logs []string
}

func (r *LogRecorder) Log(s string) {
	r.Logs = append(r.Logs, s)
}

// ProgramLog records msg on behalf of the running program, charging the
// same compute units as the sol_log_ syscall.
func ProgramLog(execCtx *ExecutionCtx, msg string) error {
	cost := max(uint64(len(msg)), cu.CUSyscallBaseCost)

	err := execCtx.ComputeMeter.Consume(cost)
	if err != nil {
		return InstrErrComputationalBudgetExceeded
	}

	execCtx.Log.Log(ProgramLogPrefix + msg)
	return nil
}

// runtime-emitted lines, as in Solana transaction logs

func logInvoke(log Logger, programId solana.PublicKey, depth int) {
	log.Log(fmt.Sprintf("Program %s invoke [%d]", programId, depth))
}

func logConsumed(log Logger, programId solana.PublicKey, used, limit uint64) {
	log.Log(fmt.Sprintf("Program %s consumed %d of %d compute units", programId, used, limit))
}

func logSuccess(log Logger, programId solana.PublicKey) {
	log.Log(fmt.Sprintf("Program %s success", programId))
}

func logFailure(log Logger, programId solana.PublicKey, err error) {
	log.Log(fmt.Sprintf("Program %s failed: %s", programId, err))
}
