// Package commands implements the grid-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/gridproto/grid-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Direction *log.Direction
	Category  *log.Category
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [conn:id] DIRECTION CATEGORY
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	connID := shortenConnID(event.ConnectionID)
	dir := event.Direction.String()

	fmt.Fprintf(w, "%s [conn:%s] %-3s %s\n", ts, connID, dir, event.Category)

	if event.DeviceID != "" {
		fmt.Fprintf(w, "  Device: %s\n", event.DeviceID)
	}

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.Command != nil:
		formatCommandDetails(w, event.Command)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		fmt.Fprintf(w, "  Message: %s\n", event.Error.Message)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatFrameDetails writes frame-specific details.
func formatFrameDetails(w io.Writer, frame *log.FrameEvent) {
	fmt.Fprintf(w, "  Kind: %s\n", frame.Kind)
	fmt.Fprintf(w, "  Size: %d bytes\n", frame.Size)
	if frame.Hex != "" {
		fmt.Fprintf(w, "  Data: %s\n", frame.Hex)
	}
	if frame.Kind == log.FrameKindKey {
		action := "released"
		if frame.Pressed {
			action = "pressed"
		}
		fmt.Fprintf(w, "  Key: (%d, %d) %s\n", frame.X, frame.Y, action)
	} else if frame.Detail != "" {
		fmt.Fprintf(w, "  Detail: %s\n", frame.Detail)
	}
}

// formatCommandDetails writes command-specific details.
func formatCommandDetails(w io.Writer, cmd *log.CommandEvent) {
	fmt.Fprintf(w, "  Opcode: 0x%02X\n", cmd.Opcode)
	fmt.Fprintf(w, "  Size: %d bytes\n", cmd.Size)
	if cmd.Hex != "" {
		fmt.Fprintf(w, "  Data: %s\n", cmd.Hex)
	}
}

// formatStateChangeDetails writes state change details.
func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

// ParseDirectionFlag parses a direction string from a command-line flag
// (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category string from a command-line flag
// (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "frame":
		return log.CategoryFrame, nil
	case "command":
		return log.CategoryCommand, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be frame, command, state, or error)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, log.Filter{
		Direction: filter.Direction,
		Category:  filter.Category,
	})
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		formatEvent(output, event)
	}

	return nil
}
