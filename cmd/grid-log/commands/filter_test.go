package commands

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/gridproto/grid-go/pkg/log"
)

func readAllEvents(t *testing.T, path string) []log.Event {
	t.Helper()

	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	var events []log.Event
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		events = append(events, event)
	}
	return events
}

func TestFilterByConnectionID(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, ConnectionID: "conn-a", Category: log.CategoryState},
		{Timestamp: ts, ConnectionID: "conn-b", Category: log.CategoryState},
		{Timestamp: ts, ConnectionID: "conn-a", Category: log.CategoryState},
	}

	path := createTestLogFile(t, events)
	out := filepath.Join(t.TempDir(), "filtered.glog")

	if err := RunFilter(path, FilterOptions{Output: out, ConnID: "conn-a"}); err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	filtered := readAllEvents(t, out)
	if len(filtered) != 2 {
		t.Fatalf("expected 2 events, got %d", len(filtered))
	}
	for _, e := range filtered {
		if e.ConnectionID != "conn-a" {
			t.Errorf("unexpected connection id %q", e.ConnectionID)
		}
	}
}

func TestFilterByTimeRange(t *testing.T) {
	base := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: base, Category: log.CategoryState},
		{Timestamp: base.Add(time.Minute), Category: log.CategoryState},
		{Timestamp: base.Add(2 * time.Minute), Category: log.CategoryState},
	}

	path := createTestLogFile(t, events)
	out := filepath.Join(t.TempDir(), "filtered.glog")

	opts := FilterOptions{
		Output:    out,
		TimeStart: base.Add(30 * time.Second).Format(time.RFC3339),
		TimeEnd:   base.Add(90 * time.Second).Format(time.RFC3339),
	}
	if err := RunFilter(path, opts); err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	filtered := readAllEvents(t, out)
	if len(filtered) != 1 {
		t.Fatalf("expected 1 event, got %d", len(filtered))
	}
}

func TestFilterByDirection(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, Direction: log.DirectionIn, Category: log.CategoryFrame, Frame: keyFrame(t, []byte{0x21, 0, 0})},
		{Timestamp: ts, Direction: log.DirectionOut, Category: log.CategoryCommand, Command: log.NewCommandEvent([]byte{0x12})},
	}

	path := createTestLogFile(t, events)
	out := filepath.Join(t.TempDir(), "filtered.glog")

	if err := RunFilter(path, FilterOptions{Output: out, Direction: "out"}); err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	filtered := readAllEvents(t, out)
	if len(filtered) != 1 {
		t.Fatalf("expected 1 event, got %d", len(filtered))
	}
	if filtered[0].Direction != log.DirectionOut {
		t.Errorf("expected OUT event, got %v", filtered[0].Direction)
	}
}

func TestFilterInvalidTime(t *testing.T) {
	path := createTestLogFile(t, nil)
	out := filepath.Join(t.TempDir(), "filtered.glog")

	err := RunFilter(path, FilterOptions{Output: out, TimeStart: "yesterday"})
	if err == nil {
		t.Error("expected error for invalid time format")
	}
}
