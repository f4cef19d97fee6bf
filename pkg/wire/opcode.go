package wire

// Protocol opcodes. The first byte of every message selects its meaning;
// payload shapes are fixed per opcode (see package documentation for the
// legacy key-event ambiguity on 0x00/0x01).
const (
	// OpSystemQuery is the 1-byte outbound system query. Inbound, the
	// same opcode carries a system query response, or a legacy
	// key-released event when the message is exactly 3 bytes.
	OpSystemQuery byte = 0x00

	// OpDeviceID is the 1-byte outbound device-id query. Inbound, the
	// same opcode carries the device-id response, or a legacy
	// key-pressed event when the message is exactly 3 bytes.
	OpDeviceID byte = 0x01

	// OpGridSize is the inbound 3-byte grid-size response (width, height).
	OpGridSize byte = 0x03

	// OpGridSizeQuery is the 1-byte outbound grid-size query.
	OpGridSizeQuery byte = 0x05

	// OpLedOff and OpLedOn address a single LED: opcode, x, y.
	OpLedOff byte = 0x10
	OpLedOn  byte = 0x11

	// OpAllOff and OpAllOn clear or light the whole grid: opcode only.
	OpAllOff byte = 0x12
	OpAllOn  byte = 0x13

	// OpLedMap writes an 8x8 LED block: opcode, x, y, then 8 row bitmasks.
	OpLedMap byte = 0x14

	// OpLedRow and OpLedColumn write 8 LEDs from a bitmask: opcode, x, y, mask.
	OpLedRow    byte = 0x15
	OpLedColumn byte = 0x16

	// OpIntensity sets the global brightness: opcode, level.
	OpIntensity byte = 0x17

	// OpLedLevel sets one LED's brightness: opcode, x, y, level.
	OpLedLevel byte = 0x18

	// OpKeyUp and OpKeyDown are the current-scheme key events: opcode, x, y.
	OpKeyUp   byte = 0x20
	OpKeyDown byte = 0x21
)

// MaxLevel is the highest LED intensity level. Levels above it are
// clamped on encode, never rejected.
const MaxLevel = 15

// Scheme identifies which key-event encoding produced a KeyEvent.
type Scheme uint8

const (
	// SchemeCurrent is the 0x20/0x21 key-event encoding.
	SchemeCurrent Scheme = 0

	// SchemeLegacy is the length-disambiguated 0x00/0x01 encoding.
	SchemeLegacy Scheme = 1
)

// String returns the scheme name.
func (s Scheme) String() string {
	switch s {
	case SchemeCurrent:
		return "CURRENT"
	case SchemeLegacy:
		return "LEGACY"
	default:
		return "UNKNOWN"
	}
}
