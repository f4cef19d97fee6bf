package session

import "github.com/gridproto/grid-go/pkg/wire"

// Event is a notification delivered to subscribers. Exactly one field
// is set. Events arrive in read-loop order; state changes and faults
// share the channel so subscribers observe them in sequence with the
// frames around them.
type Event struct {
	// Frame is a decoded inbound frame.
	Frame wire.Frame

	// StateChange is a session state transition.
	StateChange *StateChange

	// Err is a fault surfaced by the session.
	Err error
}

// StateChange describes a session state transition.
type StateChange struct {
	Old    State
	New    State
	Reason string
}
