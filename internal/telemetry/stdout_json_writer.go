package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JSONStdoutWriter prints events and status rows as JSON lines to STDOUT.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

// WriteEvent outputs a mission event in JSON format.
func (w *JSONStdoutWriter) WriteEvent(row EventRow) error {
	return w.print(row)
}

// WriteEvents outputs multiple mission events in JSON format.
func (w *JSONStdoutWriter) WriteEvents(rows []EventRow) error {
	for _, r := range rows {
		if err := w.WriteEvent(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteStatus outputs a status snapshot in JSON format.
func (w *JSONStdoutWriter) WriteStatus(row StatusRow) error {
	return w.print(row)
}

func (w *JSONStdoutWriter) print(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}
