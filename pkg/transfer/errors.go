package transfer

import (
	"errors"
	"fmt"
)

// ValidationError reports a caller-correctable input problem: a malformed address, amount or nonce.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func newValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// EncodingError reports a value that cannot be encoded against the wire or packing schema.
type EncodingError struct {
	Reason string
	Err    error
}

func (e *EncodingError) Error() string {
	if e.Err == nil {
		return "encoding failed: " + e.Reason
	}
	return fmt.Sprintf("encoding failed: %s: %v", e.Reason, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// RemoteError wraps a failure of an external collaborator (packing, signing, submission).
// It is never retried.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsEncoding(err error) bool {
	var target *EncodingError
	return errors.As(err, &target)
}

func IsRemote(err error) bool {
	var target *RemoteError
	return errors.As(err, &target)
}
