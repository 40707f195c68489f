package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dark-phoenix/internal/geo"
	"dark-phoenix/internal/state"
	"dark-phoenix/internal/threat"
)

type collectWriter struct {
	events   []EventRow
	statuses []StatusRow
	batches  int
	closed   int
	err      error
}

func (c *collectWriter) WriteEvent(r EventRow) error {
	c.events = append(c.events, r)
	return c.err
}

func (c *collectWriter) WriteStatus(r StatusRow) error {
	c.statuses = append(c.statuses, r)
	return c.err
}

func (c *collectWriter) Close() error {
	c.closed++
	return nil
}

type batchCollectWriter struct{ collectWriter }

func (b *batchCollectWriter) WriteEvents(rows []EventRow) error {
	b.batches++
	b.events = append(b.events, rows...)
	return nil
}

func TestEventRowFrom(t *testing.T) {
	ts := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	ev := state.MissionEvent{
		ID:              "e1",
		Timestamp:       ts,
		Type:            state.ThreatDetected,
		Description:     "Threat level escalated to RED: weapon",
		ThreatLevel:     threat.Red,
		Position:        geo.Position{Lat: 1, Lon: 2, Alt: 3},
		ResponseActions: []string{"a"},
	}
	row := EventRowFrom("c1", "u1", ev)
	if row.EventType != "threat_detected" || row.ThreatLevel != "RED" {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.Lat != 1 || row.Lon != 2 || row.Alt != 3 || !row.Timestamp.Equal(ts) {
		t.Fatalf("position/time not copied: %+v", row)
	}
	ev.ResponseActions[0] = "mutated"
	if row.ResponseActions[0] != "a" {
		t.Fatalf("response actions share storage with the event")
	}
}

func TestMultiWriterContinuesAfterFailure(t *testing.T) {
	bad := &collectWriter{err: errors.New("down")}
	good := &collectWriter{}
	mw := NewMultiWriter([]EventWriter{bad, good}, []StatusWriter{bad, good})
	if err := mw.WriteEvent(EventRow{EventID: "e1"}); err == nil {
		t.Fatalf("expected error from failing writer")
	}
	if len(good.events) != 1 {
		t.Fatalf("good writer missed the event")
	}
	if err := mw.WriteStatus(StatusRow{UnitID: "u"}); err == nil {
		t.Fatalf("expected error from failing writer")
	}
	if len(good.statuses) != 1 {
		t.Fatalf("good writer missed the status")
	}
}

func TestMultiWriterUsesBatch(t *testing.T) {
	b := &batchCollectWriter{}
	plain := &collectWriter{}
	mw := NewMultiWriter([]EventWriter{b, plain}, nil)
	rows := []EventRow{{EventID: "1"}, {EventID: "2"}}
	if err := mw.WriteEvents(rows); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}
	if b.batches != 1 || len(b.events) != 2 {
		t.Fatalf("batch writer: batches=%d events=%d", b.batches, len(b.events))
	}
	if len(plain.events) != 2 {
		t.Fatalf("plain writer got %d events", len(plain.events))
	}
}

func TestMultiWriterClosesOnce(t *testing.T) {
	w := &collectWriter{}
	mw := NewMultiWriter([]EventWriter{w}, []StatusWriter{w})
	if err := mw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if w.closed != 1 {
		t.Fatalf("closed %d times", w.closed)
	}
}

func TestJSONStdoutWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &JSONStdoutWriter{out: &buf}
	if err := w.WriteEvents([]EventRow{{EventID: "e1"}, {EventID: "e2"}}); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}
	if err := w.WriteStatus(StatusRow{UnitID: "u1", ThreatLevel: "YELLOW"}); err != nil {
		t.Fatalf("WriteStatus: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	var st StatusRow
	if err := json.Unmarshal([]byte(lines[2]), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.ThreatLevel != "YELLOW" {
		t.Fatalf("threat_level = %s", st.ThreatLevel)
	}
}

func TestColorStdoutWriterPrintsStatusOnChange(t *testing.T) {
	var buf bytes.Buffer
	w := &ColorStdoutWriter{out: &buf}
	_ = w.WriteStatus(StatusRow{Name: "phoenix", ThreatLevel: "GREEN"})
	first := buf.Len()
	if first == 0 || !strings.Contains(buf.String(), "phoenix") {
		t.Fatalf("expected initial status table")
	}
	_ = w.WriteStatus(StatusRow{Name: "phoenix", ThreatLevel: "GREEN", Battery: 80})
	if buf.Len() != first {
		t.Fatalf("unchanged level should not print")
	}
	_ = w.WriteStatus(StatusRow{Name: "phoenix", ThreatLevel: "RED"})
	if buf.Len() == first {
		t.Fatalf("level change should print")
	}

	buf.Reset()
	_ = w.WriteEvent(EventRow{ThreatLevel: "RED", EventType: "threat_detected", Description: "escalated", ResponseActions: []string{"x"}})
	if !strings.Contains(buf.String(), "escalated") || !strings.Contains(buf.String(), "[x]") {
		t.Fatalf("unexpected event line: %q", buf.String())
	}
}

func TestFileWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	evPath := filepath.Join(dir, "events.jsonl")
	stPath := filepath.Join(dir, "status.jsonl")
	fw, err := NewFileWriter(evPath, stPath)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	ts := time.Unix(100, 0).UTC()
	if err := fw.WriteEvents([]EventRow{{EventID: "a", Timestamp: ts}, {EventID: "b", Timestamp: ts}}); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}
	_ = fw.WriteStatus(StatusRow{ThreatLevel: "GREEN"})
	_ = fw.WriteStatus(StatusRow{ThreatLevel: "ORANGE"})
	if err := fw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	cw := &collectWriter{}
	if err := ReplayLogFile(t.Context(), evPath, cw, 0); err != nil {
		t.Fatalf("ReplayLogFile: %v", err)
	}
	if len(cw.events) != 2 || cw.events[1].EventID != "b" {
		t.Fatalf("unexpected replay: %+v", cw.events)
	}
	st, err := LastStatusFile(stPath)
	if err != nil {
		t.Fatalf("LastStatusFile: %v", err)
	}
	if st.ThreatLevel != "ORANGE" {
		t.Fatalf("last status = %s", st.ThreatLevel)
	}
}

func TestFileWriterWithoutStatus(t *testing.T) {
	fw, err := NewFileWriter(filepath.Join(t.TempDir(), "events.jsonl"), "")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	defer fw.Close()
	if err := fw.WriteStatus(StatusRow{}); err != nil {
		t.Fatalf("status should be skipped, got %v", err)
	}
}
