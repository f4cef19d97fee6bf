// Package wire defines the binary serial protocol for grid devices.
//
// The protocol is byte-oriented with no framing: each message is a
// one-byte opcode followed by a fixed-shape payload, with no length
// prefix and no checksum. Message boundaries are inferred from the
// opcode and the size of the chunk delivered by the transport.
//
// # Message Types
//
// Inbound messages (device to host) decode to a Frame:
//   - KeyEvent: a button press or release
//   - SystemInfo: responses to the system, device-id and size queries
//   - UnknownEvent: an unrecognized opcode with a key-event shape
//   - RawData: anything else
//
// Outbound messages (host to device) are built from a Command:
// LED writes, batch LED operations, intensity control, the three
// queries, and the key-event report enables.
//
// # Legacy Key Events
//
// Two key-event encodings exist. The current scheme uses opcodes
// 0x20 (released) and 0x21 (pressed). The legacy scheme reuses the
// system-query opcode 0x00 (released) and the device-id opcode 0x01
// (pressed). The two readings are disambiguated purely by length: a
// 3-byte message starting with 0x00 or 0x01 is a legacy key event,
// any other length is a system message. Decode preserves exactly this
// rule; it is a property of the protocol, not of this implementation.
package wire
