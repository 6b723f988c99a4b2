package room

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreachable covers dial and handshake failures. Callers may retry.
	ErrUnreachable = errors.New("room: headless host unreachable")

	// ErrUnauthorized means the token was invalid or expired.
	ErrUnauthorized = errors.New("room: token rejected by host")

	// ErrInvalidConfig means the host refused the RoomConfig.
	ErrInvalidConfig = errors.New("room: configuration rejected by host")

	// ErrRejected is any other refusal from the host.
	ErrRejected = errors.New("room: initialization rejected by host")

	ErrClosed       = errors.New("room: closed")
	ErrBackpressure = errors.New("room: command queue full")
)

// Error codes the bridge reports in an error frame.
const (
	CodeUnauthorized  = "unauthorized"
	CodeInvalidConfig = "invalid_config"
)

// HostError is an error frame sent by the bridge.
type HostError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *HostError) Error() string {
	return fmt.Sprintf("host error %s: %s", e.Code, e.Message)
}

// Unwrap maps the code onto the package sentinels for errors.Is.
func (e *HostError) Unwrap() error {
	switch e.Code {
	case CodeUnauthorized:
		return ErrUnauthorized
	case CodeInvalidConfig:
		return ErrInvalidConfig
	default:
		return ErrRejected
	}
}

// IsRetryable reports whether retrying the same call could succeed.
// Authorization and configuration failures are final.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnreachable) || errors.Is(err, ErrBackpressure)
}
