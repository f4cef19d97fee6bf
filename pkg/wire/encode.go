package wire

import (
	"errors"
	"fmt"
)

// ErrOutOfRange reports a coordinate outside the wire-addressable
// range 0..255. Intensity levels are never rejected; they clamp to
// 0..MaxLevel instead, matching legacy device behavior.
var ErrOutOfRange = errors.New("coordinate out of range")

// Encode serializes a command to its wire bytes. It fails only when a
// coordinate is outside the addressable range.
func Encode(cmd Command) ([]byte, error) {
	switch c := cmd.(type) {
	case SetLed:
		if err := checkCoords(c.X, c.Y); err != nil {
			return nil, err
		}
		return []byte{c.Opcode(), byte(c.X), byte(c.Y)}, nil

	case SetLevel:
		if err := checkCoords(c.X, c.Y); err != nil {
			return nil, err
		}
		return []byte{OpLedLevel, byte(c.X), byte(c.Y), clampLevel(c.Level)}, nil

	case SetRow:
		if err := checkCoords(c.X, c.Y); err != nil {
			return nil, err
		}
		return []byte{OpLedRow, byte(c.X), byte(c.Y), c.Bitmask}, nil

	case SetColumn:
		if err := checkCoords(c.X, c.Y); err != nil {
			return nil, err
		}
		return []byte{OpLedColumn, byte(c.X), byte(c.Y), c.Bitmask}, nil

	case SetMap:
		if err := checkCoords(c.X, c.Y); err != nil {
			return nil, err
		}
		buf := make([]byte, 3, 11)
		buf[0], buf[1], buf[2] = OpLedMap, byte(c.X), byte(c.Y)
		return append(buf, c.Rows[:]...), nil

	case AllOff:
		return []byte{OpAllOff}, nil

	case AllOn:
		return []byte{OpAllOn}, nil

	case SetIntensity:
		return []byte{OpIntensity, clampLevel(c.Level)}, nil

	case QuerySystem:
		return []byte{OpSystemQuery}, nil

	case QueryID:
		return []byte{OpDeviceID}, nil

	case QuerySize:
		return []byte{OpGridSizeQuery}, nil

	case EnableKeyEvents:
		return []byte{c.Opcode(), 0x01}, nil

	default:
		// Command is a sealed interface; this is unreachable for
		// values constructed outside the package.
		return nil, fmt.Errorf("unsupported command type %T", cmd)
	}
}

func checkCoords(x, y int) error {
	if x < 0 || x > 0xff {
		return fmt.Errorf("x=%d: %w", x, ErrOutOfRange)
	}
	if y < 0 || y > 0xff {
		return fmt.Errorf("y=%d: %w", y, ErrOutOfRange)
	}
	return nil
}

func clampLevel(level int) byte {
	if level < 0 {
		return 0
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return byte(level)
}
