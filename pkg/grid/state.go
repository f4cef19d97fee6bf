package grid

import (
	"fmt"
	"sync"
)

// Dimensions describes the size of a grid device. Both sides must be
// positive; dimensions are fixed for a session's lifetime once learned
// or defaulted.
type Dimensions struct {
	Width  uint8
	Height uint8
}

// DefaultDimensions is used until the device reports its size.
var DefaultDimensions = Dimensions{Width: 16, Height: 8}

// Valid reports whether both sides are positive.
func (d Dimensions) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

// String returns the dimensions as "WxH".
func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// State is the canonical mirror of device state. It is safe for
// concurrent use; writers block each other, readers share.
type State struct {
	mu   sync.RWMutex
	dims Dimensions

	// leds holds intensity levels 0..15, indexed [y][x]. On/off mode
	// maps to levels 15 and 0.
	leds [][]uint8

	// keys holds key-down state, indexed [y][x].
	keys [][]bool
}

// onLevel is the intensity a boolean "on" write maps to.
const onLevel uint8 = 15

// NewState creates a state mirror with the given dimensions. Invalid
// dimensions fall back to DefaultDimensions.
func NewState(dims Dimensions) *State {
	if !dims.Valid() {
		dims = DefaultDimensions
	}
	s := &State{dims: dims}
	s.alloc()
	return s
}

// alloc must be called with the write lock held (or before publication).
func (s *State) alloc() {
	s.leds = make([][]uint8, s.dims.Height)
	s.keys = make([][]bool, s.dims.Height)
	for y := range s.leds {
		s.leds[y] = make([]uint8, s.dims.Width)
		s.keys[y] = make([]bool, s.dims.Width)
	}
}

// Dimensions returns the current dimensions.
func (s *State) Dimensions() Dimensions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dims
}

// Resize adopts dimensions learned from the device, clearing both
// planes. Resizing to the current dimensions keeps existing state.
// Invalid dimensions are ignored.
func (s *State) Resize(dims Dimensions) {
	if !dims.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if dims == s.dims {
		return
	}
	s.dims = dims
	s.alloc()
}

// SetLed switches a single LED on or off. Out-of-range coordinates
// are a no-op.
func (s *State) SetLed(x, y int, on bool) {
	level := 0
	if on {
		level = int(onLevel)
	}
	s.SetLevel(x, y, level)
}

// SetLevel sets a single LED's intensity, clamped to 0..15.
// Out-of-range coordinates are a no-op.
func (s *State) SetLevel(x, y, level int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLevelLocked(x, y, level)
}

func (s *State) setLevelLocked(x, y, level int) {
	if !s.inRange(x, y) {
		return
	}
	if level < 0 {
		level = 0
	}
	if level > int(onLevel) {
		level = int(onLevel)
	}
	s.leds[y][x] = uint8(level)
}

// SetAll sets every LED on or off in one step.
func (s *State) SetAll(on bool) {
	var level uint8
	if on {
		level = onLevel
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for y := range s.leds {
		for x := range s.leds[y] {
			s.leds[y][x] = level
		}
	}
}

// ApplyRow writes 8 LEDs in row y starting at column x from a bitmask,
// least significant bit first. Cells falling outside the grid are
// skipped.
func (s *State) ApplyRow(x, y int, bitmask byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < 8; i++ {
		level := 0
		if bitmask&(1<<i) != 0 {
			level = int(onLevel)
		}
		s.setLevelLocked(x+i, y, level)
	}
}

// ApplyColumn writes 8 LEDs in column x starting at row y from a
// bitmask, least significant bit first. Cells falling outside the grid
// are skipped.
func (s *State) ApplyColumn(x, y int, bitmask byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < 8; i++ {
		level := 0
		if bitmask&(1<<i) != 0 {
			level = int(onLevel)
		}
		s.setLevelLocked(x, y+i, level)
	}
}

// ApplyMap writes an 8x8 LED block at offset (x, y), one bitmask per
// row, least significant bit first. Cells falling outside the grid are
// skipped.
func (s *State) ApplyMap(x, y int, rows [8]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			level := 0
			if rows[row]&(1<<col) != 0 {
				level = int(onLevel)
			}
			s.setLevelLocked(x+col, y+row, level)
		}
	}
}

// SetKey records a key press or release reported by the device.
// Out-of-range coordinates are a no-op.
func (s *State) SetKey(x, y int, down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inRange(x, y) {
		return
	}
	s.keys[y][x] = down
}

// Level returns the LED intensity at (x, y), or 0 for out-of-range
// coordinates.
func (s *State) Level(x, y int) uint8 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.inRange(x, y) {
		return 0
	}
	return s.leds[y][x]
}

// IsOn reports whether the LED at (x, y) has a nonzero level.
func (s *State) IsOn(x, y int) bool {
	return s.Level(x, y) > 0
}

// KeyDown reports whether the key at (x, y) is held, or false for
// out-of-range coordinates.
func (s *State) KeyDown(x, y int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.inRange(x, y) {
		return false
	}
	return s.keys[y][x]
}

// Snapshot returns a copy of the LED plane, indexed [y][x].
func (s *State) Snapshot() [][]uint8 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([][]uint8, len(s.leds))
	for y := range s.leds {
		out[y] = make([]uint8, len(s.leds[y]))
		copy(out[y], s.leds[y])
	}
	return out
}

// KeySnapshot returns a copy of the key plane, indexed [y][x].
func (s *State) KeySnapshot() [][]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([][]bool, len(s.keys))
	for y := range s.keys {
		out[y] = make([]bool, len(s.keys[y]))
		copy(out[y], s.keys[y])
	}
	return out
}

func (s *State) inRange(x, y int) bool {
	return x >= 0 && y >= 0 && x < int(s.dims.Width) && y < int(s.dims.Height)
}
