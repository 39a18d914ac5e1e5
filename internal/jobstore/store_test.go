package jobstore

import (
	"context"
	"os"
	"testing"

	"github.com/sealium/transcription-service/internal/jobstate"
)

func TestFileStore_CreateLoadSave(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := New(root, NewMemoryCache())

	state := jobstate.New("job-abc", jobstate.InputDescriptor{Type: jobstate.InputPath, Value: "/tmp/a.mp4"}, jobstate.Options{})
	if err := store.Create(ctx, state); err != nil {
		t.Fatalf("Create: %v", err)
	}

	loaded, err := store.Load(ctx, "job-abc")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected loaded state, got nil")
	}
	if loaded.Status != jobstate.StatusQueued {
		t.Errorf("Status = %s, want queued", loaded.Status)
	}
}

func TestFileStore_Load_MissingReturnsNilNotError(t *testing.T) {
	store := New(t.TempDir(), nil)
	state, err := store.Load(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("expected nil error for missing job, got %v", err)
	}
	if state != nil {
		t.Fatal("expected nil state for missing job")
	}
}

func TestFileStore_Load_CorruptedState(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := New(root, nil)

	state := jobstate.New("job-bad", jobstate.InputDescriptor{Type: jobstate.InputUpload, Value: ""}, jobstate.Options{})
	if err := store.Create(ctx, state); err != nil {
		t.Fatalf("Create: %v", err)
	}

	p := store.paths("job-bad")
	if err := os.WriteFile(p.StateFile(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupted state: %v", err)
	}

	_, err := store.Load(ctx, "job-bad")
	if err == nil {
		t.Fatal("expected error for corrupted state")
	}
}

func TestFileStore_SetStatus_SetProgress_AddError(t *testing.T) {
	ctx := context.Background()
	store := New(t.TempDir(), NewMemoryCache())
	state := jobstate.New("job-xyz", jobstate.InputDescriptor{Type: jobstate.InputURL, Value: "https://e.com/a.mp4"}, jobstate.Options{})
	if err := store.Create(ctx, state); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.SetStatus(ctx, "job-xyz", jobstate.StatusSplitting); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	total, done := 10, 3
	if err := store.SetProgress(ctx, "job-xyz", &total, &done); err != nil {
		t.Fatalf("SetProgress: %v", err)
	}
	if err := store.AddError(ctx, "job-xyz", "boom"); err != nil {
		t.Fatalf("AddError: %v", err)
	}

	loaded, err := store.Load(ctx, "job-xyz")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Status != jobstate.StatusSplitting {
		t.Errorf("Status = %s, want splitting", loaded.Status)
	}
	if loaded.Progress.Percent != 30 {
		t.Errorf("Percent = %d, want 30", loaded.Progress.Percent)
	}
	if len(loaded.Errors) != 1 || loaded.Errors[0] != "boom" {
		t.Errorf("Errors = %v, want [boom]", loaded.Errors)
	}
}
