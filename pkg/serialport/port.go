// Package serialport opens the serial transport a grid device sits
// behind. Transport parameters are fixed by the protocol: 115200 baud,
// 8 data bits, 1 stop bit, no parity.
package serialport

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Transport parameters for grid devices.
const (
	// BaudRate is the fixed line speed.
	BaudRate = 115200

	// ReadBufferSize is the chunk size the session's read loop drains
	// the port with.
	ReadBufferSize = 64 * 1024
)

// ErrNoPortName reports that no serial port path was given.
var ErrNoPortName = errors.New("no serial port name")

// Port wraps a serial port opened with the grid transport parameters.
// Close unblocks a pending Read.
type Port struct {
	name string
	port serial.Port
}

// Open opens the named serial port (e.g. /dev/ttyUSB0) with the fixed
// grid transport parameters.
func Open(name string) (*Port, error) {
	if name == "" {
		return nil, ErrNoPortName
	}

	mode := &serial.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	return &Port{name: name, port: p}, nil
}

// Name returns the port path this Port was opened with.
func (p *Port) Name() string { return p.name }

// Read reads whatever bytes are available, blocking until at least one
// byte arrives or the port is closed.
func (p *Port) Read(buf []byte) (int, error) {
	n, err := p.port.Read(buf)
	if err != nil {
		return n, err
	}
	// go.bug.st/serial reports a closed or vanished port as a zero-byte
	// read on some platforms; normalize to end-of-stream.
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write writes the full buffer to the port.
func (p *Port) Write(data []byte) (int, error) {
	return p.port.Write(data)
}

// Close closes the port, unblocking any pending Read.
func (p *Port) Close() error {
	return p.port.Close()
}

// Dialer returns a dial function for the named port, suitable for a
// session controller. Each call opens the port fresh, so reconnects
// pick up a re-enumerated device.
func Dialer(name string) func(ctx context.Context) (io.ReadWriteCloser, error) {
	return func(ctx context.Context) (io.ReadWriteCloser, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return Open(name)
	}
}
