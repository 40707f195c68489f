package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"
)

// ErrNoStatus is returned when a status log holds no rows.
var ErrNoStatus = errors.New("no status rows")

// ReplayLog replays mission events from r to writer. A speed >0 scales the
// original spacing between events; if speed <= 0, no delay is inserted.
func ReplayLog(ctx context.Context, r io.Reader, writer EventWriter, speed float64) error {
	dec := json.NewDecoder(r)
	var prev time.Time
	for {
		var row EventRow
		if err := dec.Decode(&row); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if !prev.IsZero() && speed > 0 {
			diff := time.Duration(float64(row.Timestamp.Sub(prev)) / speed)
			if diff > 0 {
				t := time.NewTimer(diff)
				select {
				case <-ctx.Done():
					t.Stop()
					return ctx.Err()
				case <-t.C:
				}
			}
		}
		if err := writer.WriteEvent(row); err != nil {
			return err
		}
		prev = row.Timestamp
	}
}

// ReplayLogFile opens a file and replays its mission events.
func ReplayLogFile(ctx context.Context, path string, writer EventWriter, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayLog(ctx, f, writer, speed)
}

// LastStatus returns the final row of a JSONL status log.
func LastStatus(r io.Reader) (StatusRow, error) {
	dec := json.NewDecoder(r)
	var last StatusRow
	found := false
	for {
		var row StatusRow
		if err := dec.Decode(&row); err != nil {
			if err == io.EOF {
				break
			}
			return StatusRow{}, err
		}
		last, found = row, true
	}
	if !found {
		return StatusRow{}, ErrNoStatus
	}
	return last, nil
}

// LastStatusFile opens a status log and returns its final row.
func LastStatusFile(path string) (StatusRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return StatusRow{}, err
	}
	defer f.Close()
	return LastStatus(f)
}
