// Package joblog provides the append-only per-job log required by spec §3
// (logs/job.log) and §7 (stack traces on failure). It wraps log/slog the
// same way internal/config builds the process-wide logger, but writes to
// a per-job file instead of stdout.
package joblog

import (
	"fmt"
	"log/slog"
	"os"
)

// Logger is an append-only sink for one job's log file.
type Logger struct {
	file *os.File
	slog *slog.Logger
}

// Open appends to (creating if necessary) the log file at path and wraps
// it in a structured slog.Logger.
func Open(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("joblog: open %s: %w", path, err)
	}
	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &Logger{file: f, slog: slog.New(handler)}, nil
}

// Close closes the underlying file.
func (l *Logger) Close() error {
	return l.file.Close()
}

// Info logs a structured info-level line.
func (l *Logger) Info(msg string, args ...any) { l.slog.Info(msg, args...) }

// Warn logs a structured warn-level line.
func (l *Logger) Warn(msg string, args ...any) { l.slog.Warn(msg, args...) }

// Error logs a structured error-level line.
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// Trace appends a raw stack trace / error detail block, used by stage
// workers when a job transitions to failed (spec §7).
func (l *Logger) Trace(stage string, err error, stack string) {
	l.slog.Error("stage failed",
		slog.String("stage", stage),
		slog.String("error", err.Error()),
		slog.String("stack", stack),
	)
}
