// Package errsink defines the ErrorSink port: the external collaborator
// stage workers report failures to, beyond the job's own errors list
// and log file. spec.md names it as an explicit collaborator, so it is
// lifted out of ad hoc slog calls into its own port, the same way the
// teacher keeps its slog.Logger usage but behind named helper points
// at every error path.
package errsink

import (
	"context"
	"log/slog"
)

// ErrorSink receives out-of-band failure reports, e.g. for alerting or
// external aggregation, independent of the job's own error list.
type ErrorSink interface {
	Report(ctx context.Context, jobID, stage string, err error)
}

// LoggingSink reports errors through slog. It is always safe to use
// even when no external aggregator is configured.
type LoggingSink struct {
	logger *slog.Logger
}

// NewLoggingSink creates a LoggingSink writing through logger, or through
// slog.Default() when logger is nil.
func NewLoggingSink(logger *slog.Logger) *LoggingSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingSink{logger: logger}
}

// Report logs the failure at error level with job/stage attribution.
func (s *LoggingSink) Report(_ context.Context, jobID, stage string, err error) {
	s.logger.Error("stage error reported",
		slog.String("job_id", jobID),
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	)
}

var _ ErrorSink = (*LoggingSink)(nil)
