// Package mock provides an in-memory grid device for session tests.
// The device speaks the serial protocol over io.Pipe pairs: every host
// write arrives at the device as one chunk, and every device write
// arrives at the host as one chunk, so a chunk is always a whole
// message.
package mock

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

// Protocol bytes the device understands and emits.
const (
	opSystemQuery   = 0x00
	opDeviceID      = 0x01
	opGridSize      = 0x03
	opGridSizeQuery = 0x05
	opKeyUp         = 0x20
	opKeyDown       = 0x21
)

// Device is a scripted grid device. One device serves one link at a
// time; Dial creates a fresh link per call, so a session can reconnect
// to the same device.
type Device struct {
	// ID is the identifier reported in response to a device-id query.
	ID string

	// Width and Height are reported in response to a size query.
	Width  uint8
	Height uint8

	// ReplyDelay is the pause before each query response, simulating
	// device latency. Zero replies immediately.
	ReplyDelay time.Duration

	mu       sync.Mutex
	link     *link
	commands [][]byte
	dials    int
	failDial bool
}

// NewDevice creates a mock device with the given identity and size.
func NewDevice(id string, width, height uint8) *Device {
	return &Device{ID: id, Width: width, Height: height}
}

// Dial returns a dial function handing out a fresh host-side transport
// per call. The device serves the new link until it is dropped or the
// host closes it.
func (d *Device) Dial() func(ctx context.Context) (io.ReadWriteCloser, error) {
	return func(ctx context.Context) (io.ReadWriteCloser, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		d.mu.Lock()
		if d.failDial {
			d.failDial = false
			d.mu.Unlock()
			return nil, errors.New("mock: device unavailable")
		}
		d.dials++

		hostR, devW := io.Pipe()
		devR, hostW := io.Pipe()
		l := &link{hostR: hostR, hostW: hostW, devR: devR, devW: devW}
		d.link = l
		d.mu.Unlock()

		go d.serve(l)
		return l, nil
	}
}

// FailNextDial makes the next Dial call fail with an open error.
func (d *Device) FailNextDial() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failDial = true
}

// DialCount returns how many links have been opened.
func (d *Device) DialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// Commands returns a copy of every chunk the device has received, in
// arrival order, across all links.
func (d *Device) Commands() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]byte, len(d.commands))
	for i, c := range d.commands {
		out[i] = append([]byte(nil), c...)
	}
	return out
}

// ClearCommands discards the recorded command history.
func (d *Device) ClearCommands() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands = d.commands[:0]
}

// PressKey emits a key-down event for (x, y) on the current link.
func (d *Device) PressKey(x, y uint8) error {
	return d.emit([]byte{opKeyDown, x, y})
}

// ReleaseKey emits a key-up event for (x, y) on the current link.
func (d *Device) ReleaseKey(x, y uint8) error {
	return d.emit([]byte{opKeyUp, x, y})
}

// Emit sends arbitrary bytes to the host, for scripting malformed or
// unrecognized traffic.
func (d *Device) Emit(data []byte) error {
	return d.emit(append([]byte(nil), data...))
}

func (d *Device) emit(data []byte) error {
	d.mu.Lock()
	l := d.link
	d.mu.Unlock()
	if l == nil {
		return errors.New("mock: no active link")
	}
	return l.deviceWrite(data)
}

// DropLink severs the current link from the device side: the host's
// next read returns end-of-stream and its writes fail.
func (d *Device) DropLink() {
	d.mu.Lock()
	l := d.link
	d.link = nil
	d.mu.Unlock()
	if l != nil {
		l.deviceClose()
	}
}

// serve reads host chunks off one link, records them, and answers
// queries until the link goes away.
func (d *Device) serve(l *link) {
	buf := make([]byte, 1024)
	for {
		n, err := l.devR.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			d.mu.Lock()
			d.commands = append(d.commands, chunk)
			d.mu.Unlock()
			d.respond(l, chunk)
		}
		if err != nil {
			l.deviceClose()
			return
		}
	}
}

// respond answers the three single-byte queries. The system response
// carries a trailing pad byte so its length cannot be mistaken for a
// legacy key event.
func (d *Device) respond(l *link, chunk []byte) {
	if len(chunk) != 1 {
		return
	}

	var reply []byte
	switch chunk[0] {
	case opSystemQuery:
		reply = []byte{opSystemQuery, 0x01, 0x00, 0x00}
	case opDeviceID:
		reply = append([]byte{opDeviceID}, []byte(d.ID)...)
	case opGridSizeQuery:
		reply = []byte{opGridSize, d.Width, d.Height}
	default:
		return
	}

	if d.ReplyDelay > 0 {
		time.Sleep(d.ReplyDelay)
	}
	_ = l.deviceWrite(reply)
}

// link is one bidirectional connection. The host side is handed to the
// session controller; the device side stays with the device.
type link struct {
	hostR *io.PipeReader
	hostW *io.PipeWriter
	devR  *io.PipeReader
	devW  *io.PipeWriter

	// devWriteMu keeps query replies and injected key events whole.
	devWriteMu sync.Mutex

	hostOnce sync.Once
	devOnce  sync.Once
}

// Read implements the host side of io.ReadWriteCloser.
func (l *link) Read(p []byte) (int, error) { return l.hostR.Read(p) }

// Write implements the host side of io.ReadWriteCloser.
func (l *link) Write(p []byte) (int, error) { return l.hostW.Write(p) }

// Close implements the host side of io.ReadWriteCloser.
func (l *link) Close() error {
	l.hostOnce.Do(func() {
		l.hostW.Close()
		l.hostR.Close()
	})
	return nil
}

func (l *link) deviceWrite(data []byte) error {
	l.devWriteMu.Lock()
	defer l.devWriteMu.Unlock()
	_, err := l.devW.Write(data)
	return err
}

func (l *link) deviceClose() {
	l.devOnce.Do(func() {
		l.devW.Close()
		l.devR.Close()
	})
}
