package storage

import (
	"context"
	"io"
)

// NullMirror is the default Mirror: no off-box copy is configured, so
// every job's deliverable zip lives only under its job directory. This is
// always correct, just not durable past local disk loss.
type NullMirror struct{}

// Enabled always reports false for NullMirror.
func (NullMirror) Enabled() bool { return false }

// Upload always fails with ErrMirrorNotConfigured.
func (NullMirror) Upload(_ context.Context, _ string, _ io.Reader) (string, error) {
	return "", ErrMirrorNotConfigured
}

var _ Mirror = NullMirror{}
