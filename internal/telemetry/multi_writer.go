package telemetry

import (
	"errors"
	"io"
)

// MultiWriter fans out events and status rows to multiple writers. A failing
// writer does not stop delivery to the others.
type MultiWriter struct {
	eventWriters  []EventWriter
	statusWriters []StatusWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ews []EventWriter, sws []StatusWriter) *MultiWriter {
	return &MultiWriter{eventWriters: ews, statusWriters: sws}
}

// WriteEvent sends an event to all event writers.
func (mw *MultiWriter) WriteEvent(row EventRow) error {
	var errs []error
	for _, w := range mw.eventWriters {
		if err := w.WriteEvent(row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteEvents sends events to all event writers, using batch if supported.
func (mw *MultiWriter) WriteEvents(rows []EventRow) error {
	var errs []error
	for _, w := range mw.eventWriters {
		if err := WriteEvents(w, rows); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteStatus sends a status row to all status writers.
func (mw *MultiWriter) WriteStatus(row StatusRow) error {
	var errs []error
	for _, w := range mw.statusWriters {
		if err := w.WriteStatus(row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetAdminStatus forwards the admin API state to writers that display it.
func (mw *MultiWriter) SetAdminStatus(listening bool) {
	for _, w := range mw.all() {
		if aw, ok := w.(AdminStatusWriter); ok {
			aw.SetAdminStatus(listening)
		}
	}
}

// Close closes every writer that implements io.Closer, once each.
func (mw *MultiWriter) Close() error {
	var errs []error
	for _, w := range mw.all() {
		if c, ok := w.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// all returns the distinct writers across both lists.
func (mw *MultiWriter) all() []any {
	seen := make(map[any]bool)
	var out []any
	add := func(w any) {
		if seen[w] {
			return
		}
		seen[w] = true
		out = append(out, w)
	}
	for _, w := range mw.eventWriters {
		add(w)
	}
	for _, w := range mw.statusWriters {
		add(w)
	}
	return out
}
