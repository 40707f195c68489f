package telemetry

import (
	"encoding/json"
	"errors"
	"os"
)

// FileWriter writes events and status rows to JSONL files.
type FileWriter struct {
	eventFile  *os.File
	statusFile *os.File
	eventEnc   *json.Encoder
	statusEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. statusPath may be empty to skip the
// status log.
func NewFileWriter(eventPath, statusPath string) (*FileWriter, error) {
	ef, err := os.Create(eventPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{eventFile: ef, eventEnc: json.NewEncoder(ef)}
	if statusPath != "" {
		sf, err := os.Create(statusPath)
		if err != nil {
			ef.Close()
			return nil, err
		}
		fw.statusFile = sf
		fw.statusEnc = json.NewEncoder(sf)
	}
	return fw, nil
}

// WriteEvent logs a single mission event.
func (f *FileWriter) WriteEvent(row EventRow) error {
	return f.eventEnc.Encode(row)
}

// WriteEvents logs multiple mission events.
func (f *FileWriter) WriteEvents(rows []EventRow) error {
	for _, r := range rows {
		if err := f.WriteEvent(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteStatus logs a status row, if enabled.
func (f *FileWriter) WriteStatus(row StatusRow) error {
	if f.statusEnc == nil {
		return nil
	}
	return f.statusEnc.Encode(row)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var errs []error
	if f.eventFile != nil {
		errs = append(errs, f.eventFile.Close())
	}
	if f.statusFile != nil {
		errs = append(errs, f.statusFile.Close())
	}
	return errors.Join(errs...)
}
