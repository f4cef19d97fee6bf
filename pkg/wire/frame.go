package wire

import (
	"fmt"
	"strings"
)

// Frame is a fully decoded inbound protocol message. Frames are
// immutable once constructed; every frame carries the raw bytes it was
// decoded from and a hexadecimal rendering for diagnostics.
type Frame interface {
	// Raw returns the bytes the frame was decoded from.
	Raw() []byte

	// Hex returns the raw bytes as uppercase space-separated hex pairs.
	Hex() string

	frame()
}

// frameBytes carries the raw input and its hex rendering. It is
// embedded by every concrete frame type.
type frameBytes struct {
	raw []byte
	hex string
}

func newFrameBytes(data []byte) frameBytes {
	return frameBytes{raw: data, hex: HexString(data)}
}

// Raw implements Frame.
func (f frameBytes) Raw() []byte { return f.raw }

// Hex implements Frame.
func (f frameBytes) Hex() string { return f.hex }

func (frameBytes) frame() {}

// HexString renders data as uppercase space-separated hex pairs,
// e.g. "21 05 03".
func HexString(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(len(data)*3 - 1)
	for i, v := range data {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(fmt.Sprintf("%02X", v))
	}
	return b.String()
}

// KeyEvent reports a button press or release at grid coordinates (X, Y).
type KeyEvent struct {
	frameBytes

	X       uint8
	Y       uint8
	Pressed bool

	// Scheme records which key-event encoding the device used.
	Scheme Scheme
}

// String returns a human-readable description of the event.
func (e KeyEvent) String() string {
	action := "up"
	if e.Pressed {
		action = "down"
	}
	if e.Scheme == SchemeLegacy {
		return fmt.Sprintf("key %s (%d,%d) [legacy]", action, e.X, e.Y)
	}
	return fmt.Sprintf("key %s (%d,%d)", action, e.X, e.Y)
}

// SystemSubtype classifies a SystemInfo frame.
type SystemSubtype uint8

const (
	// SystemQuery is a system query response (section, number).
	SystemQuery SystemSubtype = 0

	// SystemDeviceID is a device-id response.
	SystemDeviceID SystemSubtype = 1

	// SystemGridSize is a grid-size response (width, height).
	SystemGridSize SystemSubtype = 2
)

// String returns the subtype name.
func (s SystemSubtype) String() string {
	switch s {
	case SystemQuery:
		return "QUERY"
	case SystemDeviceID:
		return "DEVICE_ID"
	case SystemGridSize:
		return "GRID_SIZE"
	default:
		return "UNKNOWN"
	}
}

// SystemInfo is an informational response from the device. Exactly the
// fields implied by Subtype are meaningful.
type SystemInfo struct {
	frameBytes

	Subtype SystemSubtype

	// Section and Number are set for SystemQuery responses.
	Section uint8
	Number  uint8

	// DeviceID is set for SystemDeviceID responses, trimmed of padding.
	DeviceID string

	// Width and Height are set for SystemGridSize responses.
	Width  uint8
	Height uint8
}

// String returns a human-readable description of the response.
func (s SystemInfo) String() string {
	switch s.Subtype {
	case SystemQuery:
		return fmt.Sprintf("system query response: section %d, count %d", s.Section, s.Number)
	case SystemDeviceID:
		return fmt.Sprintf("device id: %s", s.DeviceID)
	case SystemGridSize:
		return fmt.Sprintf("grid size: %dx%d", s.Width, s.Height)
	default:
		return "system info"
	}
}

// UnknownEvent is a 3-byte message with an unrecognized opcode. The
// payload is exposed with key-event field names since that is the only
// 3-byte shape the protocol defines.
type UnknownEvent struct {
	frameBytes

	Opcode uint8
	X      uint8
	Y      uint8
}

// String returns a human-readable description of the event.
func (e UnknownEvent) String() string {
	return fmt.Sprintf("unknown event 0x%02X (%d,%d)", e.Opcode, e.X, e.Y)
}

// RawData is any input that matches no known message shape. Decoding
// never fails; malformed input degrades to RawData.
type RawData struct {
	frameBytes
}

// String returns a human-readable description of the data.
func (r RawData) String() string {
	return fmt.Sprintf("raw data: %s", r.Hex())
}
