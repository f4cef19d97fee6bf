package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger. Useful for
// development when you want to see protocol traffic in the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter that writes to the given
// slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("conn_id", event.ConnectionID),
		slog.String("direction", event.Direction.String()),
		slog.String("category", event.Category.String()),
	}

	if event.DeviceID != "" {
		attrs = append(attrs, slog.String("device_id", event.DeviceID))
	}

	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.String("kind", event.Frame.Kind.String()),
			slog.String("hex", event.Frame.Hex),
		)
		if event.Frame.Detail != "" {
			attrs = append(attrs, slog.String("detail", event.Frame.Detail))
		}
	case event.Command != nil:
		attrs = append(attrs,
			slog.Int("opcode", int(event.Command.Opcode)),
			slog.String("hex", event.Command.Hex),
		)
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs, slog.String("error", event.Error.Message))
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "grid protocol event", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
