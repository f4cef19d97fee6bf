package session

import "errors"

// Session errors.
var (
	// ErrNoActiveSession reports a command submitted while no transport
	// is available to carry it. Submissions never drop silently; silent
	// loss of an LED command would desynchronize a stateful display.
	ErrNoActiveSession = errors.New("no active session")

	// ErrQueueFull reports that the command queue is at capacity.
	ErrQueueFull = errors.New("command queue full")

	// ErrAlreadyConnected reports a connect request on a session that
	// is already connected or connecting.
	ErrAlreadyConnected = errors.New("already connected")

	// ErrSessionClosed reports an operation on an explicitly closed
	// session.
	ErrSessionClosed = errors.New("session closed")
)
