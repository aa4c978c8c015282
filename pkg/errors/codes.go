package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a unique identifier for specific error conditions in Perennis.
type ErrorCode int

const (
	ErrCodeUnknown       ErrorCode = 1000
	ErrCodeConfigInvalid ErrorCode = 1001
	ErrCodeConfigRead    ErrorCode = 1002

	// Snapshot and ini file access
	ErrCodeSnapshotRead  ErrorCode = 2001
	ErrCodeSnapshotWrite ErrorCode = 2002
	ErrCodeModListRead   ErrorCode = 2003

	// Workshop oracle
	ErrCodeOracleFetch   ErrorCode = 3001
	ErrCodeOracleParse   ErrorCode = 3002
	ErrCodeOracleTimeout ErrorCode = 3003

	// Control channel
	ErrCodeCommandSend ErrorCode = 4001

	// Process control
	ErrCodeProcessKill   ErrorCode = 5001
	ErrCodeProcessLaunch ErrorCode = 5002
	ErrCodeBackupFailed  ErrorCode = 5003
	ErrCodeRebootFailed  ErrorCode = 5004
)

// PerennisError is a custom error type that provides structured error information,
// including an error code, the operation being performed, and the underlying cause.
type PerennisError struct {
	// Code is the specific error code.
	Code ErrorCode
	// Msg is a human-readable description of the error.
	Msg string
	// Operation describes the action being performed when the error occurred.
	Operation string
	// Err is the underlying error that caused this error, if any.
	Err error
}

// Error returns a formatted string representation of the error.
func (e *PerennisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %s (cause: %v)", e.Code, e.Operation, e.Msg, e.Err)
	}
	return fmt.Sprintf("[%d] %s: %s", e.Code, e.Operation, e.Msg)
}

// Unwrap returns the underlying error.
func (e *PerennisError) Unwrap() error {
	return e.Err
}

// New creates a new PerennisError with the specified code, operation, message, and underlying error.
func New(code ErrorCode, op, msg string, err error) error {
	return &PerennisError{
		Code:      code,
		Msg:       msg,
		Operation: op,
		Err:       err,
	}
}

// CodeOf returns the code of the first PerennisError in err's chain,
// or ErrCodeUnknown if there is none.
func CodeOf(err error) ErrorCode {
	var pe *PerennisError
	if stderrors.As(err, &pe) {
		return pe.Code
	}
	return ErrCodeUnknown
}

// Personal.AI order the ending
