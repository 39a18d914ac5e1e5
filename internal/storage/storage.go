// Package storage provides an optional durable mirror for a job's packaged
// deliverables. The job directory tree under jobpaths is always the
// source of truth; Mirror is a secondary, best-effort copy used so a
// finished zip survives the loss of local disk. Implementations must be
// safe for concurrent use.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrMirrorNotConfigured is returned by NullMirror.Upload, the Mirror used
// when no mirror backend is configured.
var ErrMirrorNotConfigured = errors.New("storage: mirror not configured")

// Mirror uploads a named artifact to an off-box store and reports whether
// it is configured to do anything at all.
type Mirror interface {
	// Enabled reports whether Upload will attempt a real transfer.
	Enabled() bool
	// Upload copies data to key in the mirror and returns a locator
	// (typically a URL) for it.
	Upload(ctx context.Context, key string, data io.Reader) (string, error)
}
