package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealium/transcription-service/internal/jobpaths"
	"github.com/sealium/transcription-service/internal/jobstate"
	"github.com/sealium/transcription-service/internal/jobstore"
	"github.com/sealium/transcription-service/internal/queue"
)

func newTestHandlers(t *testing.T) (*Handlers, string) {
	t.Helper()
	root := t.TempDir()
	store := jobstore.New(root, jobstore.NewMemoryCache())
	reg := queue.NewRegistry()
	reg.Register(queue.New("splitter", queue.RetryPolicy{}, func(_ context.Context, _ string) error { return nil }, 1))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandlers(store, reg, root, logger), root
}

func TestCreateJob_JSON(t *testing.T) {
	h, _ := newTestHandlers(t)

	body := `{"input":{"type":"url","value":"https://example.com/clip.mp4"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/transcriptions/jobs", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.CreateJob(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp CreateJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, "queued", resp.Status)
}

func TestCreateJob_RejectsMissingValue(t *testing.T) {
	h, _ := newTestHandlers(t)

	body := `{"input":{"type":"url","value":""}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/transcriptions/jobs", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.CreateJob(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateJob_Multipart(t *testing.T) {
	h, root := newTestHandlers(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "clip.mp4")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake mp4 bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/transcriptions/jobs", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	h.CreateJob(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp CreateJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	p := jobpaths.New(root, resp.JobID)
	data, err := os.ReadFile(p.OriginalMedia())
	require.NoError(t, err)
	assert.Equal(t, "fake mp4 bytes", string(data))
}

func TestGetJob_NotFound(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/transcriptions/jobs/missing", nil)
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()

	h.GetJob(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetJob_Found(t *testing.T) {
	h, _ := newTestHandlers(t)
	ctx := t.Context()

	state := jobstate.New("job-1", jobstate.InputDescriptor{Type: jobstate.InputURL, Value: "u"}, jobstate.Options{}.WithDefaults())
	require.NoError(t, h.Store.Create(ctx, state))

	req := httptest.NewRequest(http.MethodGet, "/v1/transcriptions/jobs/job-1", nil)
	req.SetPathValue("id", "job-1")
	rec := httptest.NewRecorder()

	h.GetJob(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var got jobstate.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "job-1", got.ID)
}

func TestGetResult_NotDone(t *testing.T) {
	h, _ := newTestHandlers(t)
	ctx := t.Context()

	state := jobstate.New("job-2", jobstate.InputDescriptor{Type: jobstate.InputURL, Value: "u"}, jobstate.Options{}.WithDefaults())
	require.NoError(t, h.Store.Create(ctx, state))

	req := httptest.NewRequest(http.MethodGet, "/v1/transcriptions/jobs/job-2/result", nil)
	req.SetPathValue("id", "job-2")
	rec := httptest.NewRecorder()

	h.GetResult(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetResult_Done(t *testing.T) {
	h, _ := newTestHandlers(t)
	ctx := t.Context()

	state := jobstate.New("job-3", jobstate.InputDescriptor{Type: jobstate.InputURL, Value: "u"}, jobstate.Options{}.WithDefaults())
	require.NoError(t, h.Store.Create(ctx, state))
	for _, s := range []jobstate.Status{jobstate.StatusSplitting, jobstate.StatusTranscribing, jobstate.StatusMerging, jobstate.StatusPackaging, jobstate.StatusDone} {
		require.NoError(t, h.Store.SetStatus(ctx, "job-3", s))
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/transcriptions/jobs/job-3/result", nil)
	req.SetPathValue("id", "job-3")
	rec := httptest.NewRecorder()

	h.GetResult(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp ResultResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "done", resp.Status)
	assert.Contains(t, resp.DownloadURL, "job-3/download")
}

func TestDownload_NotDone(t *testing.T) {
	h, _ := newTestHandlers(t)
	ctx := t.Context()

	state := jobstate.New("job-4", jobstate.InputDescriptor{Type: jobstate.InputURL, Value: "u"}, jobstate.Options{}.WithDefaults())
	require.NoError(t, h.Store.Create(ctx, state))

	req := httptest.NewRequest(http.MethodGet, "/v1/transcriptions/jobs/job-4/download", nil)
	req.SetPathValue("id", "job-4")
	rec := httptest.NewRecorder()

	h.Download(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDownload_MissingZip(t *testing.T) {
	h, _ := newTestHandlers(t)
	ctx := t.Context()

	state := jobstate.New("job-5", jobstate.InputDescriptor{Type: jobstate.InputURL, Value: "u"}, jobstate.Options{}.WithDefaults())
	require.NoError(t, h.Store.Create(ctx, state))
	for _, s := range []jobstate.Status{jobstate.StatusSplitting, jobstate.StatusTranscribing, jobstate.StatusMerging, jobstate.StatusPackaging, jobstate.StatusDone} {
		require.NoError(t, h.Store.SetStatus(ctx, "job-5", s))
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/transcriptions/jobs/job-5/download", nil)
	req.SetPathValue("id", "job-5")
	rec := httptest.NewRecorder()

	h.Download(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownload_StreamsZip(t *testing.T) {
	h, root := newTestHandlers(t)
	ctx := t.Context()

	state := jobstate.New("job-6", jobstate.InputDescriptor{Type: jobstate.InputURL, Value: "u"}, jobstate.Options{}.WithDefaults())
	require.NoError(t, h.Store.Create(ctx, state))
	for _, s := range []jobstate.Status{jobstate.StatusSplitting, jobstate.StatusTranscribing, jobstate.StatusMerging, jobstate.StatusPackaging, jobstate.StatusDone} {
		require.NoError(t, h.Store.SetStatus(ctx, "job-6", s))
	}

	p := jobpaths.New(root, "job-6")
	require.NoError(t, os.MkdirAll(filepath.Dir(p.Zip()), 0o755))
	require.NoError(t, os.WriteFile(p.Zip(), []byte("zip bytes"), 0o644))

	req := httptest.NewRequest(http.MethodGet, "/v1/transcriptions/jobs/job-6/download", nil)
	req.SetPathValue("id", "job-6")
	rec := httptest.NewRecorder()

	h.Download(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "zip bytes", rec.Body.String())
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
}

func TestCancel_Idempotent(t *testing.T) {
	h, _ := newTestHandlers(t)
	ctx := t.Context()

	state := jobstate.New("job-7", jobstate.InputDescriptor{Type: jobstate.InputURL, Value: "u"}, jobstate.Options{}.WithDefaults())
	require.NoError(t, h.Store.Create(ctx, state))

	req := httptest.NewRequest(http.MethodPost, "/v1/transcriptions/jobs/job-7/cancel", nil)
	req.SetPathValue("id", "job-7")
	rec := httptest.NewRecorder()
	h.Cancel(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	got, err := h.Store.Load(ctx, "job-7")
	require.NoError(t, err)
	assert.Equal(t, jobstate.StatusCanceled, got.Status)

	// Second cancel on a terminal job is a no-op, not an error.
	rec2 := httptest.NewRecorder()
	h.Cancel(rec2, req)
	assert.Equal(t, http.StatusOK, rec2.Code)
}
