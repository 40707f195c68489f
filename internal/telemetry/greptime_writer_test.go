package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
)

type mockGreptimeClient struct {
	table *table.Table
	calls int
	err   error
}

func (m *mockGreptimeClient) Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error) {
	m.calls++
	if len(tables) > 0 {
		m.table = tables[0]
	}
	if m.err != nil {
		return nil, m.err
	}
	return &gpb.GreptimeResponse{}, nil
}

func newMockWriter(m *mockGreptimeClient) *GreptimeDBWriter {
	return &GreptimeDBWriter{
		client:      m,
		eventTable:  DefaultEventTable,
		statusTable: DefaultStatusTable,
		timeout:     time.Second,
	}
}

func TestGreptimeWriterEventsJSONActions(t *testing.T) {
	rows := []EventRow{{
		ClusterID:       "c1",
		UnitID:          "u1",
		EventID:         "e1",
		EventType:       "threat_detected",
		ThreatLevel:     "RED",
		ResponseActions: []string{"Threat assessment: a", "b"},
		Timestamp:       time.Unix(0, 0).UTC(),
	}}
	m := &mockGreptimeClient{}
	w := newMockWriter(m)
	if err := w.WriteEvents(rows); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}
	if m.table == nil {
		t.Fatalf("expected table to be captured")
	}
	schema := m.table.GetRows().Schema
	if len(schema) != len(eventColumns) {
		t.Fatalf("unexpected schema length: %d", len(schema))
	}
	if schema[9].Datatype != gpb.ColumnDataType_JSON {
		t.Fatalf("response_actions column type = %v, want %v", schema[9].Datatype, gpb.ColumnDataType_JSON)
	}
	vals := m.table.GetRows().Rows[0].Values
	if got := vals[0].GetStringValue(); got != "c1" {
		t.Fatalf("cluster_id = %s, want c1", got)
	}
	if got := vals[4].GetStringValue(); got != "RED" {
		t.Fatalf("threat_level = %s, want RED", got)
	}
	want := `["Threat assessment: a","b"]`
	if got := vals[9].GetStringValue(); got != want {
		t.Fatalf("response_actions = %s, want %s", got, want)
	}
}

func TestGreptimeWriterStatus(t *testing.T) {
	m := &mockGreptimeClient{}
	w := newMockWriter(m)
	row := StatusRow{ClusterID: "c1", UnitID: "u1", ThreatLevel: "OMEGA", Critical: true, Timestamp: time.Unix(0, 0)}
	if err := w.WriteStatus(row); err != nil {
		t.Fatalf("WriteStatus: %v", err)
	}
	vals := m.table.GetRows().Rows[0].Values
	if got := vals[2].GetStringValue(); got != "OMEGA" {
		t.Fatalf("threat_level = %s", got)
	}
	if !vals[3].GetBoolValue() {
		t.Fatalf("critical not written")
	}
}

func TestGreptimeWriterEmptyBatchSkipsClient(t *testing.T) {
	m := &mockGreptimeClient{}
	if err := newMockWriter(m).WriteEvents(nil); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}
	if m.calls != 0 {
		t.Fatalf("client called for empty batch")
	}
}

func TestGreptimeWriterPropagatesError(t *testing.T) {
	m := &mockGreptimeClient{err: errors.New("unavailable")}
	if err := newMockWriter(m).WriteEvent(EventRow{Timestamp: time.Unix(0, 0)}); err == nil {
		t.Fatalf("expected error")
	}
}
