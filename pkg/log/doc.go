// Package log provides protocol event logging for grid sessions.
//
// Sessions emit an Event for every decoded inbound frame, every
// encoded outbound command, every session state change, and every
// fault. Events carry the session's connection ID so logs from
// multiple runs can be correlated.
//
// Events are serialized as a CBOR stream with integer keys (the .glog
// file format, written by FileLogger and read back by Reader). For
// development, SlogAdapter mirrors events onto a log/slog logger
// instead. Loggers must be safe for concurrent use; pass nil or
// NoopLogger to disable logging.
package log
