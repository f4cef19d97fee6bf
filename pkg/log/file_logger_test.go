package log

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridproto/grid-go/pkg/wire"
)

func sampleEvents(t *testing.T) []Event {
	t.Helper()

	keyFrame, ok := wire.Decode([]byte{0x21, 5, 3})
	require.True(t, ok)
	sizeFrame, ok := wire.Decode([]byte{0x03, 16, 8})
	require.True(t, ok)

	base := time.Now().UTC()
	return []Event{
		{
			Timestamp:    base,
			ConnectionID: "conn-1",
			Direction:    DirectionOut,
			Category:     CategoryCommand,
			Command:      NewCommandEvent([]byte{0x12}),
		},
		{
			Timestamp:    base.Add(time.Millisecond),
			ConnectionID: "conn-1",
			Direction:    DirectionIn,
			Category:     CategoryFrame,
			Frame:        NewFrameEvent(keyFrame),
		},
		{
			Timestamp:    base.Add(2 * time.Millisecond),
			ConnectionID: "conn-1",
			Direction:    DirectionIn,
			Category:     CategoryFrame,
			DeviceID:     "monome",
			Frame:        NewFrameEvent(sizeFrame),
		},
		{
			Timestamp:    base.Add(3 * time.Millisecond),
			ConnectionID: "conn-1",
			Direction:    DirectionIn,
			Category:     CategoryState,
			StateChange:  &StateChangeEvent{OldState: "INITIALIZING", NewState: "READY"},
		},
	}
}

func TestFileLoggerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.glog")

	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	events := sampleEvents(t)
	for _, ev := range events {
		logger.Log(ev)
	}
	require.NoError(t, logger.Close())

	reader, err := NewReader(path)
	require.NoError(t, err)
	defer reader.Close()

	var got []Event
	for {
		ev, err := reader.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, ev)
	}

	require.Len(t, got, len(events))
	assert.Equal(t, "conn-1", got[0].ConnectionID)
	assert.Equal(t, CategoryCommand, got[0].Category)
	assert.Equal(t, uint8(0x12), got[0].Command.Opcode)
	assert.Equal(t, "21 05 03", got[1].Frame.Hex)
	assert.True(t, got[1].Frame.Pressed)
	assert.Equal(t, FrameKindSystem, got[2].Frame.Kind)
	assert.Equal(t, "monome", got[2].DeviceID)
	assert.Equal(t, "READY", got[3].StateChange.NewState)
}

func TestFileLoggerCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.glog")
	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())

	// Logging after close is silently ignored.
	logger.Log(Event{ConnectionID: "late"})
}

func TestFilteredReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.glog")
	logger, err := NewFileLogger(path)
	require.NoError(t, err)
	for _, ev := range sampleEvents(t) {
		logger.Log(ev)
	}
	require.NoError(t, logger.Close())

	frames := CategoryFrame
	reader, err := NewFilteredReader(path, Filter{Category: &frames})
	require.NoError(t, err)
	defer reader.Close()

	var count int
	for {
		ev, err := reader.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		require.Equal(t, CategoryFrame, ev.Category)
		count++
	}
	assert.Equal(t, 2, count)
}
