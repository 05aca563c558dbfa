// Package helloworld is the on-ledger program under test. It reads the first
// payload byte of its second instruction account and logs it.
package helloworld

import (
	"fmt"
	"strconv"
	"strings"

	"go.firedancer.io/loadersim/pkg/sealevel"
	"k8s.io/klog/v2"
)

const LogPrefix = "Hello World Rust program entrypoint "

// ProcessInstruction is the program entrypoint. Instruction data is ignored.
func ProcessInstruction(execCtx *sealevel.ExecutionCtx) error {
	acct, err := execCtx.InstrCtx.BorrowInstructionAccount(1)
	if err != nil {
		return err
	}

	data := acct.Data()
	if len(data) == 0 {
		klog.V(2).Infof("account %s has an empty payload", acct.Key())
		return sealevel.InstrErrAccountDataTooSmall
	}

	return sealevel.ProgramLog(execCtx, fmt.Sprintf("%s%d", LogPrefix, data[0]))
}

// ParseEntrypointLog extracts N from a "Program log: Hello World Rust program
// entrypoint N" line. The "Program log: " prefix is optional.
func ParseEntrypointLog(line string) (byte, bool) {
	line = strings.TrimPrefix(line, sealevel.ProgramLogPrefix)
	rest, ok := strings.CutPrefix(line, LogPrefix)
	if !ok {
		return 0, false
	}

	n, err := strconv.ParseUint(rest, 10, 8)
	if err != nil {
		return 0, false
	}
	return byte(n), true
}
