package log

import (
	"time"

	"github.com/gridproto/grid-go/pkg/wire"
)

// Event represents one protocol log event. CBOR encoding uses integer
// keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the session (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// DeviceID is the device identifier, once the session has learned it.
	DeviceID string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Decoded inbound frame
	Command     *CommandEvent     `cbor:"11,keyasint,omitempty"` // Encoded outbound command
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Session state transition
	Error       *ErrorEvent       `cbor:"13,keyasint,omitempty"` // Faults at any point
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an inbound message from the device.
	DirectionIn Direction = 0
	// DirectionOut indicates an outbound message to the device.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryFrame indicates a decoded inbound frame.
	CategoryFrame Category = 0
	// CategoryCommand indicates an encoded outbound command.
	CategoryCommand Category = 1
	// CategoryState indicates a session state transition.
	CategoryState Category = 2
	// CategoryError indicates a fault.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryFrame:
		return "FRAME"
	case CategoryCommand:
		return "COMMAND"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameKind classifies a logged inbound frame.
type FrameKind uint8

const (
	// FrameKindKey is a key press or release.
	FrameKindKey FrameKind = 0
	// FrameKindSystem is a system information response.
	FrameKindSystem FrameKind = 1
	// FrameKindUnknown is an unrecognized 3-byte event.
	FrameKindUnknown FrameKind = 2
	// FrameKindRaw is unrecognized data.
	FrameKindRaw FrameKind = 3
)

// String returns the frame kind name.
func (k FrameKind) String() string {
	switch k {
	case FrameKindKey:
		return "KEY"
	case FrameKindSystem:
		return "SYSTEM"
	case FrameKindUnknown:
		return "UNKNOWN_EVENT"
	case FrameKindRaw:
		return "RAW"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures a decoded inbound frame.
type FrameEvent struct {
	Kind   FrameKind `cbor:"1,keyasint"`
	Opcode uint8     `cbor:"2,keyasint"`
	Size   int       `cbor:"3,keyasint"`
	Hex    string    `cbor:"4,keyasint"`

	// Key-event fields, set when Kind is FrameKindKey or
	// FrameKindUnknown.
	X       uint8 `cbor:"5,keyasint,omitempty"`
	Y       uint8 `cbor:"6,keyasint,omitempty"`
	Pressed bool  `cbor:"7,keyasint,omitempty"`

	// Detail is a human-readable summary (system responses, raw data).
	Detail string `cbor:"8,keyasint,omitempty"`
}

// NewFrameEvent builds a FrameEvent from a decoded frame.
func NewFrameEvent(frame wire.Frame) *FrameEvent {
	raw := frame.Raw()
	ev := &FrameEvent{
		Size: len(raw),
		Hex:  frame.Hex(),
	}
	if len(raw) > 0 {
		ev.Opcode = raw[0]
	}

	switch f := frame.(type) {
	case wire.KeyEvent:
		ev.Kind = FrameKindKey
		ev.X, ev.Y, ev.Pressed = f.X, f.Y, f.Pressed
		ev.Detail = f.String()
	case wire.SystemInfo:
		ev.Kind = FrameKindSystem
		ev.Detail = f.String()
	case wire.UnknownEvent:
		ev.Kind = FrameKindUnknown
		ev.X, ev.Y = f.X, f.Y
		ev.Detail = f.String()
	default:
		ev.Kind = FrameKindRaw
	}
	return ev
}

// CommandEvent captures an encoded outbound command.
type CommandEvent struct {
	Opcode uint8  `cbor:"1,keyasint"`
	Size   int    `cbor:"2,keyasint"`
	Hex    string `cbor:"3,keyasint"`
}

// NewCommandEvent builds a CommandEvent from a command's wire bytes.
func NewCommandEvent(data []byte) *CommandEvent {
	ev := &CommandEvent{
		Size: len(data),
		Hex:  wire.HexString(data),
	}
	if len(data) > 0 {
		ev.Opcode = data[0]
	}
	return ev
}

// StateChangeEvent captures a session state transition.
type StateChangeEvent struct {
	OldState string `cbor:"1,keyasint"`
	NewState string `cbor:"2,keyasint"`

	// Reason describes what triggered the transition, if known.
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEvent captures a fault.
type ErrorEvent struct {
	Message string `cbor:"1,keyasint"`
}
