package models

import (
	"errors"
	"fmt"
)

// ErrWorkerExhausted a workflow used its whole retry budget without completing
var ErrWorkerExhausted = errors.New("worker exhausted retry budget")

// TransportError network level failure talking to the claim service
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError the claim service answered with an unexpected shape
type ProtocolError struct {
	Op     string
	Status int
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: protocol error (status %d): %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: protocol error: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// SigningError malformed key material. Never retried.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing error: %v", e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

// IsSigningError reports whether err carries a *SigningError
func IsSigningError(err error) bool {
	var se *SigningError
	return errors.As(err, &se)
}
