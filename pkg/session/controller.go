package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gridproto/grid-go/pkg/grid"
	"github.com/gridproto/grid-go/pkg/log"
	"github.com/gridproto/grid-go/pkg/serialport"
	"github.com/gridproto/grid-go/pkg/wire"
)

// Dial opens the raw transport to the device. The session controller
// takes exclusive ownership of the returned handle; no other component
// may hold it.
type Dial func(ctx context.Context) (io.ReadWriteCloser, error)

// Default configuration values.
const (
	// DefaultSettleDelay paces the initialization sequence. The device
	// needs time between a query and its reply, and the protocol has
	// no correlation ids to match them otherwise.
	DefaultSettleDelay = 100 * time.Millisecond

	// DefaultReconnectDelay is the fixed backoff before re-opening the
	// transport after an end-of-stream.
	DefaultReconnectDelay = 500 * time.Millisecond

	// DefaultQueueSize bounds the command queue.
	DefaultQueueSize = 256

	// DefaultSubscriberBuffer is the per-subscriber event buffer.
	DefaultSubscriberBuffer = 16

	// DefaultOffloadBuffer bounds the decode worker's mailbox. A full
	// mailbox back-pressures the read loop instead of buffering
	// without bound.
	DefaultOffloadBuffer = 64
)

// Config configures a session controller.
type Config struct {
	// Dial opens the transport. Required.
	Dial Dial

	// Dimensions seeds the grid mirror until the device reports its
	// size. Defaults to grid.DefaultDimensions.
	Dimensions grid.Dimensions

	// SettleDelay is the pause after each initialization send.
	SettleDelay time.Duration

	// ReconnectDelay is the fixed backoff before reconnecting.
	ReconnectDelay time.Duration

	// QueueSize bounds the command queue.
	QueueSize int

	// SubscriberBuffer is the per-subscriber event channel capacity.
	SubscriberBuffer int

	// OffloadDecode moves chunk decoding onto a dedicated worker so
	// decode work never blocks the read loop.
	OffloadDecode bool

	// OffloadBuffer bounds the decode worker's mailbox.
	OffloadBuffer int

	// Logger receives protocol log events. Nil disables logging.
	Logger log.Logger
}

// Controller owns one session to one grid device: the transport
// handle, the state machine, the read loop, the command queue and the
// grid state mirror.
type Controller struct {
	cfg    Config
	id     string
	logger log.Logger

	store *grid.State
	disp  *dispatcher

	// queue carries submitted commands across reconnects; commands
	// accepted before an end-of-stream flush after the reconnect's
	// all-off.
	queue chan wire.Command

	// mailbox feeds the decode offload worker when configured.
	mailbox chan []byte

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.RWMutex
	state       State
	transport   io.ReadWriteCloser
	writerStop  chan struct{}
	deviceID    string
	dimsLearned bool
	closing     bool

	// writeMu serializes every transport write; at most one write is
	// in flight at any time.
	writeMu sync.Mutex

	closeOnce sync.Once
}

// New creates a session controller. The session starts in
// StateDisconnected; call Connect to open it.
func New(cfg Config) (*Controller, error) {
	if cfg.Dial == nil {
		return nil, errors.New("session: Dial is required")
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.SubscriberBuffer <= 0 {
		cfg.SubscriberBuffer = DefaultSubscriberBuffer
	}
	if cfg.OffloadBuffer <= 0 {
		cfg.OffloadBuffer = DefaultOffloadBuffer
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NoopLogger{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		cfg:    cfg,
		id:     uuid.NewString(),
		logger: cfg.Logger,
		store:  grid.NewState(cfg.Dimensions),
		disp:   newDispatcher(cfg.SubscriberBuffer),
		queue:  make(chan wire.Command, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
		state:  StateDisconnected,
	}

	if cfg.OffloadDecode {
		c.mailbox = make(chan []byte, cfg.OffloadBuffer)
		c.wg.Add(1)
		go c.decodeLoop()
	}

	return c, nil
}

// ID returns the session's connection ID (a UUID), used to correlate
// log events.
func (c *Controller) ID() string { return c.id }

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// DeviceID returns the device identifier, or "" until the device has
// reported it.
func (c *Controller) DeviceID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.deviceID
}

// Dimensions returns the grid dimensions currently in effect.
func (c *Controller) Dimensions() grid.Dimensions {
	return c.store.Dimensions()
}

// Snapshot returns a copy of the LED plane.
func (c *Controller) Snapshot() [][]uint8 {
	return c.store.Snapshot()
}

// KeySnapshot returns a copy of the key-down plane.
func (c *Controller) KeySnapshot() [][]bool {
	return c.store.KeySnapshot()
}

// Subscribe registers an event subscriber. Events are delivered in
// read-loop arrival order.
func (c *Controller) Subscribe() *Subscription {
	return c.disp.subscribe()
}

// DroppedEvents returns the number of events dropped on full
// subscriber buffers.
func (c *Controller) DroppedEvents() uint64 {
	return c.disp.droppedCount()
}

// Connect opens the transport and runs initialization. On an open or
// initialization failure the session transitions to StateFaulted and
// the error is returned; faulted sessions are never retried
// automatically.
func (c *Controller) Connect(ctx context.Context) error {
	// The state check and the move to StateConnecting happen in one
	// critical section; a second concurrent Connect can never dial.
	c.mu.Lock()
	if c.closing || c.state == StateClosed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	if c.state != StateDisconnected && c.state != StateFaulted {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	old := c.state
	c.state = StateConnecting
	c.mu.Unlock()

	c.logState(old, StateConnecting, "opening transport")
	c.disp.publish(Event{StateChange: &StateChange{Old: old, New: StateConnecting, Reason: "opening transport"}})

	if err := c.establish(ctx); err != nil {
		c.fault(err)
		return err
	}
	return nil
}

// establish opens the transport, starts the read loop, runs the paced
// initialization sequence, normalizes the device with all-off, and
// starts the command writer. Callers transition to StateConnecting
// before calling.
func (c *Controller) establish(ctx context.Context) error {
	t, err := c.cfg.Dial(ctx)
	if err != nil {
		return fmt.Errorf("transport open: %w", err)
	}

	c.mu.Lock()
	c.transport = t
	c.mu.Unlock()

	readEnded := make(chan struct{})
	c.wg.Add(1)
	go c.readLoop(t, readEnded)

	c.transition(StateInitializing, "transport open")
	if err := c.initialize(ctx, t, readEnded); err != nil {
		c.detach(t)
		return err
	}

	// Device state is normalized before the writer starts, so the
	// all-off precedes any queued command.
	if err := c.writeCommand(t, wire.AllOff{}); err != nil {
		c.detach(t)
		return err
	}

	// The ready transition and the read loop's end are ordered by
	// c.mu: a stream that died during initialization, even one whose
	// writes kept landing in a driver buffer, is observed here instead
	// of producing a ready session with no reader behind it.
	stop := make(chan struct{})
	c.mu.Lock()
	select {
	case <-readEnded:
		c.mu.Unlock()
		c.detach(t)
		return errors.New("transport closed during initialization")
	default:
	}
	old := c.state
	c.state = StateReady
	c.writerStop = stop
	c.mu.Unlock()

	c.wg.Add(1)
	go c.writeLoop(t, stop)

	c.logState(old, StateReady, "initialization complete")
	c.disp.publish(Event{StateChange: &StateChange{Old: old, New: StateReady, Reason: "initialization complete"}})
	return nil
}

// initialize runs the query and key-enable sequence. Replies carry no
// correlation ids, so each send is followed by a settle delay and the
// read loop matches replies by shape.
func (c *Controller) initialize(ctx context.Context, t io.ReadWriteCloser, readEnded <-chan struct{}) error {
	sequence := []wire.Command{
		wire.QuerySystem{},
		wire.QueryID{},
		wire.QuerySize{},
		wire.EnableKeyEvents{Scheme: wire.SchemeCurrent, Pressed: false},
		wire.EnableKeyEvents{Scheme: wire.SchemeCurrent, Pressed: true},
		wire.EnableKeyEvents{Scheme: wire.SchemeLegacy, Pressed: false},
		wire.EnableKeyEvents{Scheme: wire.SchemeLegacy, Pressed: true},
	}

	for _, cmd := range sequence {
		if err := c.writeCommand(t, cmd); err != nil {
			return fmt.Errorf("initialization: %w", err)
		}
		select {
		case <-time.After(c.cfg.SettleDelay):
		case <-readEnded:
			return errors.New("initialization: transport closed")
		case <-ctx.Done():
			return ctx.Err()
		case <-c.ctx.Done():
			return ErrSessionClosed
		}
	}
	return nil
}

// detach drops a transport that failed during establishment. The
// transport pointer is cleared first so the read loop's end-of-stream
// handling recognizes the handle as stale and does not reconnect.
func (c *Controller) detach(t io.ReadWriteCloser) {
	c.mu.Lock()
	if c.transport == t {
		c.transport = nil
	}
	c.mu.Unlock()
	t.Close()
}

// fault records an unrecoverable failure.
func (c *Controller) fault(err error) {
	c.transition(StateFaulted, err.Error())
	c.publishErr(err)
}

// Submit enqueues a command for transmission. It never blocks: with no
// ready session it returns ErrNoActiveSession, with a full queue
// ErrQueueFull. Accepted commands are written strictly in submission
// order.
func (c *Controller) Submit(cmd wire.Command) error {
	c.mu.RLock()
	state := c.state
	c.mu.RUnlock()
	if state != StateReady {
		return ErrNoActiveSession
	}

	select {
	case c.queue <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}

// writeLoop is the sole consumer of the command queue for one
// connection. Commands are encoded and written one at a time.
func (c *Controller) writeLoop(t io.ReadWriteCloser, stop chan struct{}) {
	defer c.wg.Done()

	for {
		select {
		case <-stop:
			return
		case <-c.ctx.Done():
			return
		case cmd := <-c.queue:
			if err := c.writeCommand(t, cmd); err != nil {
				// Transport write failures are surfaced here; the read
				// loop observes the matching end-of-stream and drives
				// the reconnect.
				c.publishErr(err)
				return
			}
		}
	}
}

// writeCommand encodes and writes one command, mirrors its effect in
// the grid state, and logs it. writeMu guarantees at most one write is
// in flight and encodings never interleave.
func (c *Controller) writeCommand(t io.Writer, cmd wire.Command) error {
	data, err := wire.Encode(cmd)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	_, werr := t.Write(data)
	c.writeMu.Unlock()
	if werr != nil {
		return fmt.Errorf("transport write: %w", werr)
	}

	c.applyCommand(cmd)
	c.logCommand(data)
	return nil
}

// applyCommand mirrors a successfully written command in the LED
// plane, keeping the store consistent with issued intent.
func (c *Controller) applyCommand(cmd wire.Command) {
	switch v := cmd.(type) {
	case wire.SetLed:
		c.store.SetLed(v.X, v.Y, v.On)
	case wire.SetLevel:
		c.store.SetLevel(v.X, v.Y, v.Level)
	case wire.SetRow:
		c.store.ApplyRow(v.X, v.Y, v.Bitmask)
	case wire.SetColumn:
		c.store.ApplyColumn(v.X, v.Y, v.Bitmask)
	case wire.SetMap:
		c.store.ApplyMap(v.X, v.Y, v.Rows)
	case wire.AllOff:
		c.store.SetAll(false)
	case wire.AllOn:
		c.store.SetAll(true)
	}
}

// readLoop blocks on the transport and forwards chunks into the decode
// path. It runs while the session is initializing, ready or
// reconnecting, and exits on end-of-stream. ended is closed before
// end-of-stream handling so establishment can observe the loop's end.
func (c *Controller) readLoop(t io.ReadWriteCloser, ended chan struct{}) {
	defer c.wg.Done()

	buf := make([]byte, serialport.ReadBufferSize)
	for {
		n, err := t.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if !c.deliverChunk(chunk) {
				close(ended)
				return
			}
		}
		if err != nil {
			break
		}
	}

	close(ended)
	c.handleStreamEnd(t)
}

// deliverChunk hands a chunk to the decode worker, or decodes inline
// when no offload is configured. A full mailbox back-pressures the
// read loop. Returns false when the session is shutting down.
func (c *Controller) deliverChunk(chunk []byte) bool {
	if c.mailbox == nil {
		c.handleChunk(chunk)
		return true
	}
	select {
	case c.mailbox <- chunk:
		return true
	case <-c.ctx.Done():
		return false
	}
}

// decodeLoop is the offload worker: a single goroutine draining the
// mailbox in order, so dispatch order equals arrival order.
func (c *Controller) decodeLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		case chunk := <-c.mailbox:
			c.handleChunk(chunk)
		}
	}
}

// handleChunk decodes one chunk and dispatches the frame: key events
// mutate the key plane, size and id responses are recorded, everything
// is forwarded to subscribers.
func (c *Controller) handleChunk(chunk []byte) {
	frame, ok := wire.Decode(chunk)
	if !ok {
		return
	}
	c.logFrame(frame)

	switch f := frame.(type) {
	case wire.KeyEvent:
		c.store.SetKey(int(f.X), int(f.Y), f.Pressed)
	case wire.SystemInfo:
		switch f.Subtype {
		case wire.SystemDeviceID:
			c.mu.Lock()
			c.deviceID = f.DeviceID
			c.mu.Unlock()
		case wire.SystemGridSize:
			c.learnDimensions(grid.Dimensions{Width: f.Width, Height: f.Height})
		}
	}

	c.disp.publish(Event{Frame: frame})
}

// learnDimensions adopts the device-reported size once; dimensions are
// fixed for the session's lifetime after that.
func (c *Controller) learnDimensions(dims grid.Dimensions) {
	if !dims.Valid() {
		return
	}
	c.mu.Lock()
	learned := c.dimsLearned
	c.dimsLearned = true
	c.mu.Unlock()
	if !learned {
		c.store.Resize(dims)
	}
}

// handleStreamEnd runs when the read loop exhausts the transport. An
// end-of-stream on the current transport while ready, and not
// explicitly closing, triggers reconnection; anything else is handled
// by whoever closed or replaced the transport.
func (c *Controller) handleStreamEnd(t io.ReadWriteCloser) {
	c.mu.RLock()
	closing := c.closing
	current := c.transport == t
	state := c.state
	c.mu.RUnlock()

	if closing || !current || state != StateReady {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.reconnect(t)
	}()
}

// reconnect re-enters the connect path after a fixed short delay. The
// device is assumed to have lost its state across the reconnect, so
// establishment re-issues all-off before any queued command. A failed
// re-open is an unrecoverable open failure and faults the session.
func (c *Controller) reconnect(old io.ReadWriteCloser) {
	c.stopWriter()

	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return
	}
	if c.transport == old {
		c.transport = nil
	}
	c.mu.Unlock()
	old.Close()

	c.transition(StateReconnecting, "end of stream")

	select {
	case <-c.ctx.Done():
		return
	case <-time.After(c.cfg.ReconnectDelay):
	}

	c.transition(StateConnecting, "reopening transport")
	if err := c.establish(c.ctx); err != nil {
		if c.ctx.Err() != nil {
			return
		}
		c.fault(err)
	}
}

// stopWriter stops the current connection's writer goroutine.
func (c *Controller) stopWriter() {
	c.mu.Lock()
	stop := c.writerStop
	c.writerStop = nil
	c.mu.Unlock()
	if stop != nil {
		close(stop)
	}
}

// Close explicitly ends the session. Resources are released in a
// fixed order: outbound stop, then inbound cancellation, then
// transport close, so no write is attempted on a half-closed
// transport. The grid mirror is cleared, with a best-effort all-off
// sent first while a writer is still available. Close is idempotent.
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closing = true
		t := c.transport
		state := c.state
		c.mu.Unlock()

		if t != nil && (state == StateReady || state == StateInitializing) {
			_ = c.writeCommand(t, wire.AllOff{})
		}

		c.stopWriter()
		c.cancel()
		if t != nil {
			t.Close()
		}
		c.wg.Wait()

		c.store.SetAll(false)
		c.transition(StateClosed, "explicit disconnect")
		c.disp.closeAll()
	})
	return nil
}

// transition moves the state machine, logging and publishing the
// change. Only the session controller transitions session state.
func (c *Controller) transition(newState State, reason string) {
	c.mu.Lock()
	old := c.state
	if old == newState || old == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = newState
	c.mu.Unlock()

	c.logState(old, newState, reason)
	c.disp.publish(Event{StateChange: &StateChange{Old: old, New: newState, Reason: reason}})
}

func (c *Controller) publishErr(err error) {
	c.logError(err)
	c.disp.publish(Event{Err: err})
}

func (c *Controller) logFrame(frame wire.Frame) {
	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Direction:    log.DirectionIn,
		Category:     log.CategoryFrame,
		DeviceID:     c.DeviceID(),
		Frame:        log.NewFrameEvent(frame),
	})
}

func (c *Controller) logCommand(data []byte) {
	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Direction:    log.DirectionOut,
		Category:     log.CategoryCommand,
		DeviceID:     c.DeviceID(),
		Command:      log.NewCommandEvent(data),
	})
}

func (c *Controller) logState(old, newState State, reason string) {
	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Direction:    log.DirectionIn,
		Category:     log.CategoryState,
		DeviceID:     c.DeviceID(),
		StateChange: &log.StateChangeEvent{
			OldState: old.String(),
			NewState: newState.String(),
			Reason:   reason,
		},
	})
}

func (c *Controller) logError(err error) {
	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Direction:    log.DirectionIn,
		Category:     log.CategoryError,
		DeviceID:     c.DeviceID(),
		Error:        &log.ErrorEvent{Message: err.Error()},
	})
}
