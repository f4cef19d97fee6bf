package wire

import "strings"

// Decode turns one chunk of inbound bytes into a Frame. It is pure and
// total: unrecognized input becomes UnknownEvent or RawData, never an
// error. Empty input yields no frame (ok is false); callers should not
// deliver empty chunks.
//
// Decoding is stateless per chunk. Messages split across transport
// reads are not reassembled; the protocol offers no length prefix to
// do so reliably.
func Decode(data []byte) (Frame, bool) {
	if len(data) == 0 {
		return nil, false
	}

	fb := newFrameBytes(data)
	opcode := data[0]

	// Key events first. A 3-byte 0x00/0x01 message is a legacy key
	// event; the same opcodes at any other length are system messages.
	if len(data) == 3 {
		switch opcode {
		case OpKeyUp:
			return KeyEvent{frameBytes: fb, X: data[1], Y: data[2], Pressed: false, Scheme: SchemeCurrent}, true
		case OpKeyDown:
			return KeyEvent{frameBytes: fb, X: data[1], Y: data[2], Pressed: true, Scheme: SchemeCurrent}, true
		case OpSystemQuery:
			return KeyEvent{frameBytes: fb, X: data[1], Y: data[2], Pressed: false, Scheme: SchemeLegacy}, true
		case OpDeviceID:
			return KeyEvent{frameBytes: fb, X: data[1], Y: data[2], Pressed: true, Scheme: SchemeLegacy}, true
		}
	}

	switch opcode {
	case OpSystemQuery:
		if len(data) >= 3 {
			return SystemInfo{frameBytes: fb, Subtype: SystemQuery, Section: data[1], Number: data[2]}, true
		}
	case OpDeviceID:
		if len(data) > 1 {
			return SystemInfo{frameBytes: fb, Subtype: SystemDeviceID, DeviceID: trimDeviceID(data[1:])}, true
		}
	case OpGridSize:
		if len(data) >= 3 {
			return SystemInfo{frameBytes: fb, Subtype: SystemGridSize, Width: data[1], Height: data[2]}, true
		}
	}

	if len(data) == 3 {
		return UnknownEvent{frameBytes: fb, Opcode: opcode, X: data[1], Y: data[2]}, true
	}
	return RawData{frameBytes: fb}, true
}

// trimDeviceID decodes a device-id payload: non-printable bytes are
// dropped, surrounding whitespace is trimmed.
func trimDeviceID(data []byte) string {
	var b strings.Builder
	for _, v := range data {
		if v >= 0x20 && v <= 0x7e {
			b.WriteByte(v)
		}
	}
	return strings.TrimSpace(b.String())
}
