package session

import (
	"sync"
	"sync/atomic"
)

// Subscription delivers session events to one subscriber. Receive from
// C; call Cancel when done. C is closed when the subscription is
// canceled or the session closes.
type Subscription struct {
	// C carries events in read-loop arrival order.
	C <-chan Event

	id uint64
	d  *dispatcher
}

// Cancel removes the subscription and closes C. Safe to call more
// than once.
func (s *Subscription) Cancel() {
	s.d.unsubscribe(s.id)
}

// dispatcher fans session events out to subscribers. Delivery is
// best-effort per subscriber: a full buffer drops the event for that
// subscriber rather than stalling the read loop.
type dispatcher struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event
	nextID uint64
	buffer int
	closed bool

	dropped atomic.Uint64
}

func newDispatcher(buffer int) *dispatcher {
	return &dispatcher{
		subs:   make(map[uint64]chan Event),
		buffer: buffer,
	}
}

func (d *dispatcher) subscribe() *Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()

	ch := make(chan Event, d.buffer)
	if d.closed {
		close(ch)
		return &Subscription{C: ch, d: d}
	}

	d.nextID++
	id := d.nextID
	d.subs[id] = ch
	return &Subscription{C: ch, id: id, d: d}
}

func (d *dispatcher) unsubscribe(id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ch, ok := d.subs[id]
	if !ok {
		return
	}
	delete(d.subs, id)
	close(ch)
}

// publish delivers an event to every subscriber. Called only from the
// session's inbound path and state transitions, preserving arrival
// order.
func (d *dispatcher) publish(ev Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, ch := range d.subs {
		select {
		case ch <- ev:
		default:
			d.dropped.Add(1)
		}
	}
}

// closeAll closes every subscriber channel and rejects future
// subscriptions with an already-closed channel.
func (d *dispatcher) closeAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	for id, ch := range d.subs {
		delete(d.subs, id)
		close(ch)
	}
}

// droppedCount returns the number of events dropped on full
// subscriber buffers.
func (d *dispatcher) droppedCount() uint64 {
	return d.dropped.Load()
}
