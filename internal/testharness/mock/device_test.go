package mock

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialDevice(t *testing.T, d *Device) io.ReadWriteCloser {
	t.Helper()
	conn, err := d.Dial()(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readChunk(t *testing.T, conn io.Reader) []byte {
	t.Helper()
	buf := make([]byte, 1024)
	done := make(chan []byte, 1)
	go func() {
		n, err := conn.Read(buf)
		if err != nil {
			done <- nil
			return
		}
		done <- buf[:n]
	}()
	select {
	case chunk := <-done:
		require.NotNil(t, chunk, "read failed")
		return chunk
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for device reply")
		return nil
	}
}

func TestDeviceAnswersQueries(t *testing.T) {
	d := NewDevice("mock grid 64", 8, 8)
	conn := dialDevice(t, d)

	_, err := conn.Write([]byte{opGridSizeQuery})
	require.NoError(t, err)
	assert.Equal(t, []byte{opGridSize, 8, 8}, readChunk(t, conn))

	_, err = conn.Write([]byte{opDeviceID})
	require.NoError(t, err)
	assert.Equal(t, append([]byte{opDeviceID}, []byte("mock grid 64")...), readChunk(t, conn))

	_, err = conn.Write([]byte{opSystemQuery})
	require.NoError(t, err)
	assert.Len(t, readChunk(t, conn), 4)
}

func TestDeviceRecordsCommands(t *testing.T) {
	d := NewDevice("mock", 16, 8)
	conn := dialDevice(t, d)

	_, err := conn.Write([]byte{0x11, 3, 4})
	require.NoError(t, err)
	_, err = conn.Write([]byte{0x12})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(d.Commands()) == 2
	}, time.Second, 5*time.Millisecond)

	cmds := d.Commands()
	assert.Equal(t, []byte{0x11, 3, 4}, cmds[0])
	assert.Equal(t, []byte{0x12}, cmds[1])
}

func TestDeviceEmitsKeyEvents(t *testing.T) {
	d := NewDevice("mock", 16, 8)
	conn := dialDevice(t, d)

	require.NoError(t, d.PressKey(2, 5))
	assert.Equal(t, []byte{opKeyDown, 2, 5}, readChunk(t, conn))

	require.NoError(t, d.ReleaseKey(2, 5))
	assert.Equal(t, []byte{opKeyUp, 2, 5}, readChunk(t, conn))
}

func TestDropLinkEndsHostStream(t *testing.T) {
	d := NewDevice("mock", 16, 8)
	conn := dialDevice(t, d)

	d.DropLink()

	buf := make([]byte, 16)
	_, err := conn.Read(buf)
	require.Error(t, err)

	require.Error(t, d.PressKey(0, 0), "no link left to emit on")
}

func TestDialCountAndFailure(t *testing.T) {
	d := NewDevice("mock", 16, 8)
	dial := d.Dial()

	conn, err := dial(context.Background())
	require.NoError(t, err)
	conn.Close()

	d.FailNextDial()
	_, err = dial(context.Background())
	require.Error(t, err)

	conn, err = dial(context.Background())
	require.NoError(t, err)
	conn.Close()

	assert.Equal(t, 2, d.DialCount())
}

func TestDialHonorsContext(t *testing.T) {
	d := NewDevice("mock", 16, 8)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Dial()(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
