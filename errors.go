package mqtt

import (
	"errors"
	"fmt"
)

// Sentinel errors for connection lifecycle - check with errors.Is().
var (
	// ErrConnectionRefused is returned when the server rejects the CONNECT.
	ErrConnectionRefused = errors.New("connection refused")

	// ErrConnectionFailed is the base error for terminal connection failures.
	ErrConnectionFailed = errors.New("connection failed")
)

// Sentinel errors for protocol violations - check with errors.Is().
var (
	// ErrProtocolViolation is the base error for protocol failures.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrPingTimeout is raised when the server does not answer a PINGREQ
	// within the keep-alive interval.
	ErrPingTimeout = fmt.Errorf("%w: ping timeout", ErrProtocolViolation)

	// ErrInvalidMessageID is raised when an acknowledgement references a
	// message id with no pending request.
	ErrInvalidMessageID = fmt.Errorf("%w: command from server contained an invalid message id", ErrProtocolViolation)

	// ErrUnexpectedPacket is raised when the server sends a packet type
	// the client never solicits.
	ErrUnexpectedPacket = fmt.Errorf("%w: unexpected packet type from server", ErrProtocolViolation)
)

// Sentinel errors for API misuse - check with errors.Is().
var (
	// ErrListenerNotSet is returned from Subscribe when no listener has
	// been installed to receive deliveries.
	ErrListenerNotSet = errors.New("no connection listener set to handle messages from the server")
)

// ConnectError is returned when the server refuses the CONNECT handshake.
// Extract with errors.As() to inspect the return code.
type ConnectError struct {
	Code ConnackCode
}

func (e *ConnectError) Error() string { return e.Code.String() }
func (e *ConnectError) Unwrap() error { return ErrConnectionRefused }

// ConnectionLostError wraps the transport error that terminated a
// connection. Extract with errors.As().
type ConnectionLostError struct {
	Cause error
}

func (e *ConnectionLostError) Error() string {
	if e.Cause != nil {
		return "connection lost: " + e.Cause.Error()
	}
	return "connection lost"
}

func (e *ConnectionLostError) Unwrap() error { return ErrConnectionFailed }
