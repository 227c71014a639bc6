package mailer

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// TransportName identifies the failing delivery path in a TransportError.
type TransportName string

const (
	TransportNameAccount TransportName = "account"
	TransportNameRelay   TransportName = "relay"
)

// TransportError wraps a delivery failure with enough detail for logging
// while keeping a safe message for callers.
type TransportError struct {
	Transport  TransportName
	StatusCode int
	Message    string
	Transient  bool
	Cause      error
}

func (e *TransportError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 4)
	parts = append(parts, fmt.Sprintf("%s transport error", e.Transport))

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsRelayError reports whether the failure happened on the relay path.
func IsRelayError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr) && transportErr.Transport == TransportNameRelay
}

// IsTransient reports whether an error looks retriable to a caller that
// chooses to retry. The orchestrator itself never retries.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}
