package grid

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStateDefaults(t *testing.T) {
	s := NewState(Dimensions{})
	assert.Equal(t, DefaultDimensions, s.Dimensions())

	s = NewState(Dimensions{Width: 8, Height: 8})
	assert.Equal(t, "8x8", s.Dimensions().String())
}

func TestOutOfRangeWritesAreNoOps(t *testing.T) {
	s := NewState(Dimensions{Width: 16, Height: 8})

	before := s.Snapshot()
	s.SetLed(16, 0, true)
	s.SetLed(0, 8, true)
	s.SetLed(-1, 0, true)
	s.SetLevel(100, 100, 15)
	s.SetKey(16, 8, true)
	assert.Equal(t, before, s.Snapshot())
	assert.False(t, s.KeyDown(16, 8))
	assert.Zero(t, s.Level(16, 0))
}

func TestSetAllIdempotence(t *testing.T) {
	s := NewState(Dimensions{Width: 4, Height: 4})
	s.SetLed(1, 2, true)
	s.SetLevel(3, 3, 7)

	s.SetAll(false)
	s.SetAll(true)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			require.True(t, s.IsOn(x, y), "cell (%d,%d) should be on", x, y)
		}
	}

	s.SetAll(false)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			require.False(t, s.IsOn(x, y), "cell (%d,%d) should be off", x, y)
		}
	}
}

func TestApplyRow(t *testing.T) {
	s := NewState(Dimensions{Width: 16, Height: 8})

	// 0b00000101: bits 0 and 2 set, least significant bit first.
	s.ApplyRow(8, 3, 0x05)
	assert.True(t, s.IsOn(8, 3))
	assert.False(t, s.IsOn(9, 3))
	assert.True(t, s.IsOn(10, 3))
	assert.False(t, s.IsOn(11, 3))

	// Offset past the right edge: overflowing cells are skipped,
	// in-range cells still apply.
	s.ApplyRow(12, 0, 0xff)
	assert.True(t, s.IsOn(15, 0))
}

func TestApplyColumn(t *testing.T) {
	s := NewState(Dimensions{Width: 16, Height: 8})

	s.ApplyColumn(2, 0, 0x81)
	assert.True(t, s.IsOn(2, 0))
	assert.True(t, s.IsOn(2, 7))
	for y := 1; y < 7; y++ {
		assert.False(t, s.IsOn(2, y), "cell (2,%d)", y)
	}
}

func TestApplyMap(t *testing.T) {
	s := NewState(Dimensions{Width: 16, Height: 8})

	var rows [8]byte
	for i := range rows {
		rows[i] = 1 << i // diagonal
	}
	s.ApplyMap(8, 0, rows)
	for i := 0; i < 8; i++ {
		assert.True(t, s.IsOn(8+i, i), "diagonal cell (%d,%d)", 8+i, i)
	}
	assert.False(t, s.IsOn(9, 0))

	// A second map over the same block fully replaces it.
	s.ApplyMap(8, 0, [8]byte{})
	for i := 0; i < 8; i++ {
		assert.False(t, s.IsOn(8+i, i))
	}
}

func TestKeyPlane(t *testing.T) {
	s := NewState(Dimensions{Width: 8, Height: 8})

	s.SetKey(3, 4, true)
	assert.True(t, s.KeyDown(3, 4))
	assert.False(t, s.IsOn(3, 4), "key state must not touch the LED plane")

	s.SetKey(3, 4, false)
	assert.False(t, s.KeyDown(3, 4))

	keys := s.KeySnapshot()
	assert.Len(t, keys, 8)
	assert.Len(t, keys[0], 8)
}

func TestResize(t *testing.T) {
	s := NewState(DefaultDimensions)
	s.SetLed(0, 0, true)

	s.Resize(Dimensions{Width: 8, Height: 8})
	assert.Equal(t, Dimensions{Width: 8, Height: 8}, s.Dimensions())
	assert.False(t, s.IsOn(0, 0), "resize clears the planes")

	// Same dimensions keep state; invalid dimensions are ignored.
	s.SetLed(0, 0, true)
	s.Resize(Dimensions{Width: 8, Height: 8})
	assert.True(t, s.IsOn(0, 0))
	s.Resize(Dimensions{})
	assert.Equal(t, Dimensions{Width: 8, Height: 8}, s.Dimensions())
}

// Snapshots taken during concurrent batch writes must always observe
// a fully applied batch, never a partial row.
func TestSnapshotConsistency(t *testing.T) {
	s := NewState(Dimensions{Width: 8, Height: 1})

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				s.ApplyRow(0, 0, 0xff)
			} else {
				s.ApplyRow(0, 0, 0x00)
			}
		}
	}()

	for i := 0; i < 1000; i++ {
		row := s.Snapshot()[0]
		first := row[0]
		for x, v := range row {
			require.Equal(t, first, v, "partial batch visible at x=%d", x)
		}
	}
	close(stop)
	wg.Wait()
}
