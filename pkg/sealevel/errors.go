package sealevel

import "errors"

// instruction errors
var (
	InstrErrNotEnoughAccountKeys        = errors.New("InstrErrNotEnoughAccountKeys")
	InstrErrComputationalBudgetExceeded = errors.New("InstrErrComputationalBudgetExceeded")
	InstrErrInvalidAccountOwner         = errors.New("InstrErrInvalidAccountOwner")
	InstrErrInvalidAccountData          = errors.New("InstrErrInvalidAccountData")
	InstrErrAccountNotExecutable        = errors.New("InstrErrAccountNotExecutable")
	InstrErrUnsupportedProgramId        = errors.New("InstrErrUnsupportedProgramId")
	InstrErrAccountDataTooSmall         = errors.New("InstrErrAccountDataTooSmall")
)

// ErrAccountIndexOutOfRange is returned when an instruction indexes past the
// accounts it was given.
var ErrAccountIndexOutOfRange = InstrErrNotEnoughAccountKeys

// loader errors
var (
	ErrMalformedLayout        = errors.New("ErrMalformedLayout")
	ErrDelayedVisibility      = errors.New("ErrDelayedVisibility")
	ErrProgramAccountNotFound = errors.New("ErrProgramAccountNotFound")
)

// instruction errors - Solana numerical error codes
const (
	InstrErrCodeSuccess                     = 0
	InstrErrCodeGenericError                = 1
	InstrErrCodeInvalidAccountData          = 4
	InstrErrCodeAccountDataTooSmall         = 5
	InstrErrCodeNotEnoughAccountKeys        = 20
	InstrErrCodeAccountNotExecutable        = 22
	InstrErrCodeUnsupportedProgramId        = 31
	InstrErrCodeComputationalBudgetExceeded = 38
	InstrErrCodeInvalidAccountOwner         = 47
)

func TranslateErrToInstrErrCode(err error) int {
	switch {
	case err == nil:
		return InstrErrCodeSuccess
	case errors.Is(err, InstrErrInvalidAccountData), errors.Is(err, ErrDelayedVisibility):
		return InstrErrCodeInvalidAccountData
	case errors.Is(err, InstrErrAccountDataTooSmall):
		return InstrErrCodeAccountDataTooSmall
	case errors.Is(err, InstrErrNotEnoughAccountKeys):
		return InstrErrCodeNotEnoughAccountKeys
	case errors.Is(err, InstrErrAccountNotExecutable):
		return InstrErrCodeAccountNotExecutable
	case errors.Is(err, InstrErrUnsupportedProgramId):
		return InstrErrCodeUnsupportedProgramId
	case errors.Is(err, InstrErrComputationalBudgetExceeded):
		return InstrErrCodeComputationalBudgetExceeded
	case errors.Is(err, InstrErrInvalidAccountOwner):
		return InstrErrCodeInvalidAccountOwner
	}
	return InstrErrCodeGenericError
}
