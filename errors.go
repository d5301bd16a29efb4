package imgbatch

import (
	"errors"
	"fmt"
)

// LoadError is the single failure type of the decode path. It carries an
// ErrorCode classifying the failure plus a message, so callers branch on
// the code rather than on concrete error types.
type LoadError struct {
	Code ErrorCode
	Op   string // the failing operation, e.g. "fetch", "decode"
	Err  error  // underlying cause, may be nil
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("imgbatch: %s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("imgbatch: %s: %s", e.Op, e.Code)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error { return e.Err }

// loadErr builds a LoadError.
func loadErr(code ErrorCode, op string, err error) *LoadError {
	return &LoadError{Code: code, Op: op, Err: err}
}

// CodeOf extracts the ErrorCode from err. Errors that are not LoadErrors
// are classified as decode failures, the broadest per-slot class.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeNone
	}
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeDecode
}
