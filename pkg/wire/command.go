package wire

// Command is a typed, not-yet-serialized outbound instruction.
// Commands are immutable; callers construct them and hand them to the
// session's command queue, which serializes them with Encode.
type Command interface {
	// Opcode returns the first byte Encode will emit for this command.
	Opcode() byte

	command()
}

// SetLed switches a single LED on or off.
type SetLed struct {
	X, Y int
	On   bool
}

// Opcode implements Command.
func (c SetLed) Opcode() byte {
	if c.On {
		return OpLedOn
	}
	return OpLedOff
}

func (SetLed) command() {}

// SetLevel sets a single LED's intensity. Level is clamped to
// 0..MaxLevel on encode.
type SetLevel struct {
	X, Y  int
	Level int
}

// Opcode implements Command.
func (SetLevel) Opcode() byte { return OpLedLevel }

func (SetLevel) command() {}

// SetRow writes 8 LEDs in row Y starting at X from a bitmask
// (least significant bit first).
type SetRow struct {
	X, Y    int
	Bitmask byte
}

// Opcode implements Command.
func (SetRow) Opcode() byte { return OpLedRow }

func (SetRow) command() {}

// SetColumn writes 8 LEDs in column X starting at Y from a bitmask
// (least significant bit first).
type SetColumn struct {
	X, Y    int
	Bitmask byte
}

// Opcode implements Command.
func (SetColumn) Opcode() byte { return OpLedColumn }

func (SetColumn) command() {}

// SetMap writes an 8x8 LED block at offset (X, Y). Rows holds one
// bitmask per row, least significant bit first.
type SetMap struct {
	X, Y int
	Rows [8]byte
}

// Opcode implements Command.
func (SetMap) Opcode() byte { return OpLedMap }

func (SetMap) command() {}

// AllOff clears every LED on the grid.
type AllOff struct{}

// Opcode implements Command.
func (AllOff) Opcode() byte { return OpAllOff }

func (AllOff) command() {}

// AllOn lights every LED on the grid.
type AllOn struct{}

// Opcode implements Command.
func (AllOn) Opcode() byte { return OpAllOn }

func (AllOn) command() {}

// SetIntensity sets the global LED brightness. Level is clamped to
// 0..MaxLevel on encode.
type SetIntensity struct {
	Level int
}

// Opcode implements Command.
func (SetIntensity) Opcode() byte { return OpIntensity }

func (SetIntensity) command() {}

// QuerySystem asks the device for its system information.
type QuerySystem struct{}

// Opcode implements Command.
func (QuerySystem) Opcode() byte { return OpSystemQuery }

func (QuerySystem) command() {}

// QueryID asks the device for its identifier string.
type QueryID struct{}

// Opcode implements Command.
func (QueryID) Opcode() byte { return OpDeviceID }

func (QueryID) command() {}

// QuerySize asks the device for its grid dimensions.
type QuerySize struct{}

// Opcode implements Command.
func (QuerySize) Opcode() byte { return OpGridSizeQuery }

func (QuerySize) command() {}

// EnableKeyEvents asks the device to report key events for one
// direction of one encoding scheme. Initialization enables all four
// combinations; observed devices accept both schemes being active at
// once.
type EnableKeyEvents struct {
	Scheme  Scheme
	Pressed bool
}

// Opcode implements Command.
func (c EnableKeyEvents) Opcode() byte {
	if c.Scheme == SchemeLegacy {
		if c.Pressed {
			return OpDeviceID
		}
		return OpSystemQuery
	}
	if c.Pressed {
		return OpKeyDown
	}
	return OpKeyUp
}

func (EnableKeyEvents) command() {}
