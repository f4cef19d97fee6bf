// Package session owns the connection lifecycle to a single grid
// device and the concurrency discipline around its shared serial
// transport.
//
// A Controller drives the state machine
//
//	DISCONNECTED -> CONNECTING -> INITIALIZING -> READY <-> RECONNECTING -> CLOSED
//
// with FAULTED reachable from any state on an unrecoverable transport
// error. One read loop per active connection is the sole inbound
// mutator of session state and of the grid mirror's key plane; a
// single writer goroutine drains the command queue so outbound
// commands never interleave at the byte level. Decoding can optionally
// be moved onto a bounded-mailbox worker so diagnostic formatting and
// input bursts never delay the read loop.
//
// The protocol has no request/response correlation ids: replies are
// matched to the initialization queries only by arrival order and
// shape, so the initialization sequence is deliberately paced with a
// settle delay between sends instead of firing concurrently.
//
// Subscribers receive decoded frames, state changes and faults on a
// buffered channel in read-loop arrival order.
package session
