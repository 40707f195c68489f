package main

import (
	"context"
	"os"

	"golang.org/x/term"

	"dark-phoenix/internal/config"
	"dark-phoenix/internal/telemetry"
)

type writerOptions struct {
	printOnly bool
	tui       bool
	unitName  string
	// logFile receives mission events; status rows go to logFile+".status".
	logFile string
}

// isTerminal reports whether stdout is attached to a terminal.
var isTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

// newWriters sets up event and status writers based on flags and env vars.
// It returns the writers and a cleanup function to close any resources.
func newWriters(ctx context.Context, env config.Env, opts writerOptions) (telemetry.EventWriter, telemetry.StatusWriter, func(), error) {
	ew, sw, closeBase, err := baseWriters(ctx, env, opts)
	if err != nil {
		return nil, nil, nil, err
	}
	if opts.logFile == "" {
		return ew, sw, closeBase, nil
	}
	fw, err := telemetry.NewFileWriter(opts.logFile, opts.logFile+".status")
	if err != nil {
		closeBase()
		return nil, nil, nil, err
	}
	mw := telemetry.NewMultiWriter([]telemetry.EventWriter{ew, fw}, []telemetry.StatusWriter{sw, fw})
	return mw, mw, func() { _ = mw.Close() }, nil
}

// baseWriters chooses the TUI, GreptimeDB or STDOUT sink.
func baseWriters(ctx context.Context, env config.Env, opts writerOptions) (telemetry.EventWriter, telemetry.StatusWriter, func(), error) {
	switch {
	case opts.tui && isTerminal():
		w := telemetry.NewTUIWriter(opts.unitName)
		return w, w, func() { _ = w.Close() }, nil
	case opts.printOnly || env.GreptimeEndpoint == "":
		if isTerminal() {
			w := telemetry.NewColorStdoutWriter()
			return w, w, func() {}, nil
		}
		w := telemetry.NewJSONStdoutWriter()
		return w, w, func() {}, nil
	}
	w, err := telemetry.NewGreptimeDBWriter(ctx, telemetry.GreptimeConfig{
		Host:        env.GreptimeEndpoint,
		Port:        env.GreptimePort,
		Database:    env.GreptimeDatabase,
		EventTable:  env.EventTable,
		StatusTable: env.StatusTable,
		Timeout:     env.GreptimeTimeout,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return w, w, func() {}, nil
}
