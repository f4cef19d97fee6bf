package session

// State represents the session state.
type State uint8

const (
	// StateDisconnected indicates no active connection.
	StateDisconnected State = iota

	// StateConnecting indicates a transport open is in progress.
	StateConnecting

	// StateInitializing indicates the paced initialization sequence
	// is running.
	StateInitializing

	// StateReady is the steady state: frames flow in, commands flow out.
	StateReady

	// StateReconnecting indicates the transport ended and the session
	// is waiting to re-open it.
	StateReconnecting

	// StateClosed indicates the session was explicitly closed.
	StateClosed

	// StateFaulted indicates an unrecoverable transport failure. A
	// faulted session is never retried automatically.
	StateFaulted
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateInitializing:
		return "INITIALIZING"
	case StateReady:
		return "READY"
	case StateReconnecting:
		return "RECONNECTING"
	case StateClosed:
		return "CLOSED"
	case StateFaulted:
		return "FAULTED"
	default:
		return "UNKNOWN"
	}
}
