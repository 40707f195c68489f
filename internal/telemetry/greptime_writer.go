package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"dark-phoenix/internal/logging"
)

// greptimeClient is the subset of the ingester client used by the writer.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeConfig locates the GreptimeDB instance.
type GreptimeConfig struct {
	Host        string
	Port        int
	Database    string
	EventTable  string
	StatusTable string
	Timeout     time.Duration
}

// GreptimeDBWriter writes events and status rows to GreptimeDB via the
// ingester client. Tables are created on first write.
type GreptimeDBWriter struct {
	client      greptimeClient
	eventTable  string
	statusTable string
	timeout     time.Duration
	log         *slog.Logger
}

// NewGreptimeDBWriter creates a new GreptimeDB writer.
func NewGreptimeDBWriter(ctx context.Context, cfg GreptimeConfig) (*GreptimeDBWriter, error) {
	gcfg := greptime.NewConfig(cfg.Host).WithDatabase(cfg.Database)
	if cfg.Port != 0 {
		gcfg = gcfg.WithPort(cfg.Port)
	}
	client, err := greptime.NewClient(gcfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	w := &GreptimeDBWriter{
		client:      client,
		eventTable:  cfg.EventTable,
		statusTable: cfg.StatusTable,
		timeout:     cfg.Timeout,
		log:         logging.FromContext(ctx),
	}
	if w.eventTable == "" {
		w.eventTable = DefaultEventTable
	}
	if w.statusTable == "" {
		w.statusTable = DefaultStatusTable
	}
	if w.timeout <= 0 {
		w.timeout = 5 * time.Second
	}
	return w, nil
}

type columnRole int

const (
	tagColumn columnRole = iota
	fieldColumn
	timeIndexColumn
)

type column struct {
	name string
	role columnRole
	typ  types.ColumnType
}

var eventColumns = []column{
	{"cluster_id", tagColumn, types.STRING},
	{"unit_id", tagColumn, types.STRING},
	{"event_id", fieldColumn, types.STRING},
	{"event_type", fieldColumn, types.STRING},
	{"threat_level", fieldColumn, types.STRING},
	{"description", fieldColumn, types.STRING},
	{"lat", fieldColumn, types.FLOAT64},
	{"lon", fieldColumn, types.FLOAT64},
	{"alt", fieldColumn, types.FLOAT64},
	{"response_actions", fieldColumn, types.JSON},
	{"ts", timeIndexColumn, types.TIMESTAMP_MILLISECOND},
}

var statusColumns = []column{
	{"cluster_id", tagColumn, types.STRING},
	{"unit_id", tagColumn, types.STRING},
	{"threat_level", fieldColumn, types.STRING},
	{"critical", fieldColumn, types.BOOLEAN},
	{"threat_score", fieldColumn, types.FLOAT64},
	{"battery", fieldColumn, types.FLOAT64},
	{"flight_time_remaining_s", fieldColumn, types.INT64},
	{"shield_integrity", fieldColumn, types.FLOAT64},
	{"comms_ok", fieldColumn, types.BOOLEAN},
	{"siren_volume", fieldColumn, types.INT64},
	{"strobe_pattern", fieldColumn, types.STRING},
	{"fire_health", fieldColumn, types.STRING},
	{"fire_discharging", fieldColumn, types.BOOLEAN},
	{"fire_capacity", fieldColumn, types.FLOAT64},
	{"temperature", fieldColumn, types.FLOAT64},
	{"smoke", fieldColumn, types.FLOAT64},
	{"landed", fieldColumn, types.BOOLEAN},
	{"ts", timeIndexColumn, types.TIMESTAMP_MILLISECOND},
}

func newTable(name string, cols []column) (*table.Table, error) {
	tbl, err := table.New(name)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		switch c.role {
		case tagColumn:
			err = tbl.AddTagColumn(c.name, c.typ)
		case fieldColumn:
			err = tbl.AddFieldColumn(c.name, c.typ)
		case timeIndexColumn:
			err = tbl.AddTimestampColumn(c.name, c.typ)
		}
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.name, err)
		}
	}
	return tbl, nil
}

// WriteEvent inserts a single mission event.
func (w *GreptimeDBWriter) WriteEvent(row EventRow) error {
	return w.WriteEvents([]EventRow{row})
}

// WriteEvents inserts multiple mission events.
func (w *GreptimeDBWriter) WriteEvents(rows []EventRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := newTable(w.eventTable, eventColumns)
	if err != nil {
		return err
	}
	for _, r := range rows {
		actions, err := json.Marshal(r.ResponseActions)
		if err != nil {
			return err
		}
		if err := tbl.AddRow(
			r.ClusterID, r.UnitID,
			r.EventID, r.EventType, r.ThreatLevel, r.Description,
			r.Lat, r.Lon, r.Alt,
			string(actions),
			r.Timestamp,
		); err != nil {
			return err
		}
	}
	return w.write(tbl, w.eventTable, len(rows))
}

// WriteStatus inserts a status snapshot.
func (w *GreptimeDBWriter) WriteStatus(r StatusRow) error {
	tbl, err := newTable(w.statusTable, statusColumns)
	if err != nil {
		return err
	}
	if err := tbl.AddRow(
		r.ClusterID, r.UnitID,
		r.ThreatLevel, r.Critical, r.ThreatScore,
		r.Battery, int64(r.FlightTimeRemaining), r.ShieldIntegrity, r.CommsOK,
		int64(r.SirenVolume), r.StrobePattern,
		r.FireHealth, r.FireDischarging, r.FireCapacity,
		r.Temperature, r.Smoke,
		r.Landed,
		r.Timestamp,
	); err != nil {
		return err
	}
	return w.write(tbl, w.statusTable, 1)
}

func (w *GreptimeDBWriter) write(tbl *table.Table, name string, n int) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		w.logger().Warn("greptime write failed", "table", name, "error", err)
		return err
	}
	w.logger().Debug("greptime write", "table", name, "rows", n)
	return nil
}

func (w *GreptimeDBWriter) logger() *slog.Logger {
	if w.log == nil {
		return slog.Default()
	}
	return w.log
}
