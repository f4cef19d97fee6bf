package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gridproto/grid-go/pkg/log"
	"github.com/gridproto/grid-go/pkg/wire"
)

// createTestLogFile writes events to a temporary .glog file and
// returns its path.
func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.glog")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return path
}

func keyFrame(t *testing.T, data []byte) *log.FrameEvent {
	t.Helper()
	frame, ok := wire.Decode(data)
	if !ok {
		t.Fatalf("Decode(% X) produced no frame", data)
	}
	return log.NewFrameEvent(frame)
}

func TestViewFormatsKeyEvent(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{
			Timestamp:    ts,
			ConnectionID: "conn-aaaa-bbbb",
			Direction:    log.DirectionIn,
			Category:     log.CategoryFrame,
			Frame:        keyFrame(t, []byte{0x21, 5, 3}),
		},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "[conn:conn-aaa]") {
		t.Errorf("expected shortened connection id in output, got:\n%s", output)
	}
	if !strings.Contains(output, "IN") {
		t.Error("expected IN direction in output")
	}
	if !strings.Contains(output, "Key: (5, 3) pressed") {
		t.Errorf("expected key detail in output, got:\n%s", output)
	}
	if !strings.Contains(output, "Data: 21 05 03") {
		t.Errorf("expected hex data in output, got:\n%s", output)
	}
}

func TestViewFormatsCommand(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{
			Timestamp:    ts,
			ConnectionID: "conn-aaaa-bbbb",
			Direction:    log.DirectionOut,
			Category:     log.CategoryCommand,
			Command:      log.NewCommandEvent([]byte{0x11, 2, 7}),
		},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "OUT") {
		t.Error("expected OUT direction in output")
	}
	if !strings.Contains(output, "Opcode: 0x11") {
		t.Errorf("expected opcode in output, got:\n%s", output)
	}
}

func TestViewFormatsStateChange(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{
			Timestamp:    ts,
			ConnectionID: "conn-aaaa-bbbb",
			Direction:    log.DirectionIn,
			Category:     log.CategoryState,
			StateChange: &log.StateChangeEvent{
				OldState: "INITIALIZING",
				NewState: "READY",
				Reason:   "initialization complete",
			},
		},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "INITIALIZING -> READY") {
		t.Errorf("expected state transition in output, got:\n%s", output)
	}
	if !strings.Contains(output, "Reason: initialization complete") {
		t.Errorf("expected reason in output, got:\n%s", output)
	}
}

func TestViewFiltersByCategory(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, Category: log.CategoryFrame, Direction: log.DirectionIn, Frame: keyFrame(t, []byte{0x20, 0, 0})},
		{Timestamp: ts, Category: log.CategoryCommand, Direction: log.DirectionOut, Command: log.NewCommandEvent([]byte{0x12})},
	}

	path := createTestLogFile(t, events)

	cat := log.CategoryCommand
	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Category: &cat}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	output := buf.String()

	if strings.Contains(output, "Key:") {
		t.Errorf("frame event should be filtered out, got:\n%s", output)
	}
	if !strings.Contains(output, "Opcode: 0x12") {
		t.Errorf("expected command event in output, got:\n%s", output)
	}
}

func TestParseDirectionFlag(t *testing.T) {
	if _, err := ParseDirectionFlag("sideways"); err == nil {
		t.Error("expected error for invalid direction")
	}
	d, err := ParseDirectionFlag("IN")
	if err != nil {
		t.Fatalf("ParseDirectionFlag failed: %v", err)
	}
	if d != log.DirectionIn {
		t.Errorf("expected DirectionIn, got %v", d)
	}
}

func TestParseCategoryFlag(t *testing.T) {
	if _, err := ParseCategoryFlag("bogus"); err == nil {
		t.Error("expected error for invalid category")
	}
	c, err := ParseCategoryFlag("Frame")
	if err != nil {
		t.Fatalf("ParseCategoryFlag failed: %v", err)
	}
	if c != log.CategoryFrame {
		t.Errorf("expected CategoryFrame, got %v", c)
	}
}
