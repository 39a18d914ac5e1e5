package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestNullMirror(t *testing.T) {
	var m NullMirror

	if m.Enabled() {
		t.Error("NullMirror.Enabled() = true, want false")
	}

	_, err := m.Upload(context.Background(), "key", bytes.NewReader([]byte("data")))
	if !errors.Is(err, ErrMirrorNotConfigured) {
		t.Errorf("Upload() error = %v, want ErrMirrorNotConfigured", err)
	}
}
