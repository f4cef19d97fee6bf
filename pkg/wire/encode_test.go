package wire

import (
	"bytes"
	"errors"
	"testing"
)

// The protocol is not symmetric (commands and events use disjoint
// opcode ranges except for the legacy ambiguity), so no round-trip
// property holds. Instead every command variant must produce the
// length and leading opcode from the protocol table.
func TestEncodeShapes(t *testing.T) {
	tests := []struct {
		name   string
		cmd    Command
		opcode byte
		length int
	}{
		{name: "led off", cmd: SetLed{X: 3, Y: 4}, opcode: 0x10, length: 3},
		{name: "led on", cmd: SetLed{X: 3, Y: 4, On: true}, opcode: 0x11, length: 3},
		{name: "all off", cmd: AllOff{}, opcode: 0x12, length: 1},
		{name: "all on", cmd: AllOn{}, opcode: 0x13, length: 1},
		{name: "map", cmd: SetMap{X: 0, Y: 0, Rows: [8]byte{1, 2, 3, 4, 5, 6, 7, 8}}, opcode: 0x14, length: 11},
		{name: "row", cmd: SetRow{X: 0, Y: 2, Bitmask: 0xaa}, opcode: 0x15, length: 4},
		{name: "column", cmd: SetColumn{X: 2, Y: 0, Bitmask: 0x55}, opcode: 0x16, length: 4},
		{name: "intensity", cmd: SetIntensity{Level: 10}, opcode: 0x17, length: 2},
		{name: "level", cmd: SetLevel{X: 1, Y: 1, Level: 7}, opcode: 0x18, length: 4},
		{name: "query system", cmd: QuerySystem{}, opcode: 0x00, length: 1},
		{name: "query id", cmd: QueryID{}, opcode: 0x01, length: 1},
		{name: "query size", cmd: QuerySize{}, opcode: 0x05, length: 1},
		{name: "enable key up", cmd: EnableKeyEvents{Scheme: SchemeCurrent, Pressed: false}, opcode: 0x20, length: 2},
		{name: "enable key down", cmd: EnableKeyEvents{Scheme: SchemeCurrent, Pressed: true}, opcode: 0x21, length: 2},
		{name: "enable legacy key up", cmd: EnableKeyEvents{Scheme: SchemeLegacy, Pressed: false}, opcode: 0x00, length: 2},
		{name: "enable legacy key down", cmd: EnableKeyEvents{Scheme: SchemeLegacy, Pressed: true}, opcode: 0x01, length: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.cmd)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if len(data) != tt.length {
				t.Errorf("length = %d, want %d", len(data), tt.length)
			}
			if data[0] != tt.opcode {
				t.Errorf("opcode = 0x%02X, want 0x%02X", data[0], tt.opcode)
			}
			if data[0] != tt.cmd.Opcode() {
				t.Errorf("Opcode() = 0x%02X, encoded 0x%02X", tt.cmd.Opcode(), data[0])
			}
		})
	}
}

func TestEncodePayloads(t *testing.T) {
	t.Run("led coordinates", func(t *testing.T) {
		data, err := Encode(SetLed{X: 7, Y: 2, On: true})
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if !bytes.Equal(data, []byte{0x11, 7, 2}) {
			t.Errorf("bytes = % X, want 11 07 02", data)
		}
	})

	t.Run("map rows in order", func(t *testing.T) {
		rows := [8]byte{0x01, 0x02, 0x04, 0x08, 0x10, 0x20, 0x40, 0x80}
		data, err := Encode(SetMap{X: 8, Y: 0, Rows: rows})
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if !bytes.Equal(data[3:], rows[:]) {
			t.Errorf("rows = % X, want % X", data[3:], rows[:])
		}
	})

	t.Run("enable payload byte", func(t *testing.T) {
		data, err := Encode(EnableKeyEvents{Scheme: SchemeCurrent, Pressed: true})
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if !bytes.Equal(data, []byte{0x21, 0x01}) {
			t.Errorf("bytes = % X, want 21 01", data)
		}
	})
}

// Levels clamp rather than reject; only coordinates can fail.
func TestEncodeClamping(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		idx  int
		want byte
	}{
		{name: "intensity above max", cmd: SetIntensity{Level: 99}, idx: 1, want: 15},
		{name: "intensity below zero", cmd: SetIntensity{Level: -3}, idx: 1, want: 0},
		{name: "level above max", cmd: SetLevel{X: 0, Y: 0, Level: 16}, idx: 3, want: 15},
		{name: "level below zero", cmd: SetLevel{X: 0, Y: 0, Level: -1}, idx: 3, want: 0},
		{name: "level in range", cmd: SetLevel{X: 0, Y: 0, Level: 9}, idx: 3, want: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.cmd)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if data[tt.idx] != tt.want {
				t.Errorf("byte[%d] = %d, want %d", tt.idx, data[tt.idx], tt.want)
			}
		})
	}
}

func TestEncodeOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
	}{
		{name: "x too large", cmd: SetLed{X: 256, Y: 0}},
		{name: "y too large", cmd: SetLed{X: 0, Y: 256}},
		{name: "negative x", cmd: SetLevel{X: -1, Y: 0, Level: 5}},
		{name: "negative y", cmd: SetRow{X: 0, Y: -1, Bitmask: 0xff}},
		{name: "map offset", cmd: SetMap{X: 300, Y: 0}},
		{name: "column offset", cmd: SetColumn{X: 0, Y: 1000, Bitmask: 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.cmd)
			if !errors.Is(err, ErrOutOfRange) {
				t.Errorf("err = %v, want ErrOutOfRange", err)
			}
		})
	}
}

func TestHexString(t *testing.T) {
	tests := []struct {
		data []byte
		want string
	}{
		{data: nil, want: ""},
		{data: []byte{0x00}, want: "00"},
		{data: []byte{0x12, 0xab, 0x03}, want: "12 AB 03"},
	}

	for _, tt := range tests {
		if got := HexString(tt.data); got != tt.want {
			t.Errorf("HexString(% X) = %q, want %q", tt.data, got, tt.want)
		}
	}
}
