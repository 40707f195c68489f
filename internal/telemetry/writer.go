package telemetry

// EventWriter receives mission events.
type EventWriter interface {
	WriteEvent(row EventRow) error
}

// StatusWriter receives status snapshots.
type StatusWriter interface {
	WriteStatus(row StatusRow) error
}

// BatchEventWriter is implemented by sinks that can take several events at once.
type BatchEventWriter interface {
	WriteEvents(rows []EventRow) error
}

// AdminStatusWriter allows writers to receive admin API status updates.
type AdminStatusWriter interface {
	SetAdminStatus(listening bool)
}

// WriteEvents sends rows to w, batching when w supports it.
func WriteEvents(w EventWriter, rows []EventRow) error {
	if len(rows) == 0 {
		return nil
	}
	if bw, ok := w.(BatchEventWriter); ok {
		return bw.WriteEvents(rows)
	}
	for _, r := range rows {
		if err := w.WriteEvent(r); err != nil {
			return err
		}
	}
	return nil
}
