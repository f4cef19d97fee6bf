package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/gridproto/grid-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	EventsByOpcode    map[uint8]int
	KeyPresses        int
	Connections       map[string]*ConnectionStats
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// ConnectionStats holds statistics for a single connection.
type ConnectionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	DeviceID  string
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		EventsByOpcode:    make(map[uint8]int),
		Connections:       make(map[string]*ConnectionStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++
		stats.EventsByDirection[event.Direction]++

		// Track time range
		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		// Track connection stats
		conn, ok := stats.Connections[event.ConnectionID]
		if !ok {
			conn = &ConnectionStats{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
			}
			stats.Connections[event.ConnectionID] = conn
		}
		conn.Events++
		if event.Timestamp.After(conn.LastSeen) {
			conn.LastSeen = event.Timestamp
		}
		if event.DeviceID != "" && conn.DeviceID == "" {
			conn.DeviceID = event.DeviceID
		}

		switch {
		case event.Frame != nil:
			stats.EventsByOpcode[event.Frame.Opcode]++
			if event.Frame.Kind == log.FrameKindKey && event.Frame.Pressed {
				stats.KeyPresses++
			}
		case event.Command != nil:
			stats.EventsByOpcode[event.Command.Opcode]++
		}

		if event.Error != nil {
			stats.Errors++
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Grid Protocol Log Statistics ===")
	fmt.Fprintln(w)

	// Time range
	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	// Events by category
	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryFrame, log.CategoryCommand, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	// Events by direction
	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	// Opcodes, highest count first
	if len(stats.EventsByOpcode) > 0 {
		opcodes := make([]uint8, 0, len(stats.EventsByOpcode))
		for op := range stats.EventsByOpcode {
			opcodes = append(opcodes, op)
		}
		sort.Slice(opcodes, func(i, j int) bool {
			ci, cj := stats.EventsByOpcode[opcodes[i]], stats.EventsByOpcode[opcodes[j]]
			if ci != cj {
				return ci > cj
			}
			return opcodes[i] < opcodes[j]
		})

		fmt.Fprintln(w, "Events by Opcode:")
		for _, op := range opcodes {
			fmt.Fprintf(w, "  0x%02X:        %d\n", op, stats.EventsByOpcode[op])
		}
		fmt.Fprintln(w)
	}

	if stats.KeyPresses > 0 {
		fmt.Fprintf(w, "Key Presses: %d\n", stats.KeyPresses)
		fmt.Fprintln(w)
	}

	// Connections
	fmt.Fprintf(w, "Connections: %d\n", len(stats.Connections))
	if len(stats.Connections) > 0 {
		// Sort by first seen time
		type connInfo struct {
			id    string
			stats *ConnectionStats
		}
		conns := make([]connInfo, 0, len(stats.Connections))
		for id, cs := range stats.Connections {
			conns = append(conns, connInfo{id, cs})
		}
		sort.Slice(conns, func(i, j int) bool {
			return conns[i].stats.FirstSeen.Before(conns[j].stats.FirstSeen)
		})

		fmt.Fprintln(w, "")
		for _, c := range conns {
			duration := c.stats.LastSeen.Sub(c.stats.FirstSeen).Round(time.Millisecond)
			shortID := c.id
			if len(shortID) > 8 {
				shortID = shortID[:8]
			}
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortID, c.stats.Events, duration)
			if c.stats.DeviceID != "" {
				fmt.Fprintf(w, "           Device: %s\n", c.stats.DeviceID)
			}
		}
	}

	// Errors
	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
