package inspector

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by Call and Send after the connection has gone away.
var ErrClosed = errors.New("inspector: connection closed")

// ConsistencyError reports a reply that violates a protocol invariant we rely
// on (missing handle, missing preview, a shape the protocol documents as
// unreachable). It is a bug signal: callers propagate it and never retry.
type ConsistencyError struct {
	Reason string
}

func (e *ConsistencyError) Error() string {
	return "inspector: inconsistent reply: " + e.Reason
}

// Inconsistent builds a ConsistencyError from a format string.
func Inconsistent(format string, args ...any) error {
	return &ConsistencyError{Reason: fmt.Sprintf(format, args...)}
}

// IsConsistency reports whether err is (or wraps) a ConsistencyError.
func IsConsistency(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}

// CallError is a failure response from the remote endpoint for one request.
type CallError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *CallError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("inspector: remote error %d: %s", e.Code, e.Message)
	}
	return "inspector: remote error: " + e.Message
}

// TransportError is the synthetic rejection delivered to every pending call
// when the underlying connection fails or closes.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return ErrClosed.Error()
	}
	return "inspector: transport failed: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	if e.Err == nil {
		return ErrClosed
	}
	return e.Err
}
