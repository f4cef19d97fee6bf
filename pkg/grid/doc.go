// Package grid holds the in-memory mirror of a grid device's state.
//
// The State type owns two planes over one set of dimensions: LED
// intensity levels (mutated by the session's outbound path) and
// key-down state (mutated only by the session's inbound read path).
// Out-of-range writes are silent no-ops: the device and the session
// may transiently disagree on the addressable range, and dropping such
// writes on either side is the defined behavior.
//
// All reads are point-in-time snapshots consistent with the last
// applied mutation; batch operations are applied atomically and are
// never observed partially.
package grid
