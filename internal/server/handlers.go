package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/sealium/transcription-service/internal/jobid"
	"github.com/sealium/transcription-service/internal/jobpaths"
	"github.com/sealium/transcription-service/internal/jobstate"
	"github.com/sealium/transcription-service/internal/jobstore"
	"github.com/sealium/transcription-service/internal/queue"
)

// maxUploadMemory bounds the in-memory portion of a multipart form; the
// binary file part always spills straight to a temp file beyond this.
const maxUploadMemory = 32 << 20 // 32 MiB

// Handlers contains the HTTP handlers for the transcription intake API
// spec.md §6 names, backed by a jobstore.Store and the four-queue
// pipeline registry.
type Handlers struct {
	Store       jobstore.Store
	Queue       *queue.Registry
	StorageRoot string
	Logger      *slog.Logger
	Validate    *validator.Validate
}

// NewHandlers builds Handlers with a fresh validator instance.
func NewHandlers(store jobstore.Store, q *queue.Registry, storageRoot string, logger *slog.Logger) *Handlers {
	return &Handlers{
		Store:       store,
		Queue:       q,
		StorageRoot: storageRoot,
		Logger:      logger,
		Validate:    validator.New(),
	}
}

func (h *Handlers) paths(jobID string) jobpaths.Paths {
	return jobpaths.New(h.StorageRoot, jobID)
}

// CreateJob handles POST /v1/transcriptions/jobs. It accepts either a
// JSON body ({input, options?}) or a multipart form carrying a binary
// file part plus optional input_type/options fields.
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	ctype := r.Header.Get("Content-Type")
	var (
		input jobstate.InputDescriptor
		opts  jobstate.Options
		id    = jobid.Generate()
	)

	switch {
	case isMultipart(ctype):
		uploadInput, uploadOpts, err := h.parseMultipart(r, id)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
			return
		}
		input, opts = uploadInput, uploadOpts
	default:
		var req CreateJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_REQUEST")
			return
		}
		if err := h.Validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
			return
		}
		if req.Input.Type != "upload" && req.Input.Value == "" {
			writeError(w, http.StatusBadRequest, "input.value is required for url/path inputs", "INVALID_REQUEST")
			return
		}
		if req.Input.Type == "upload" {
			writeError(w, http.StatusBadRequest, "upload input requires a multipart request", "INVALID_REQUEST")
			return
		}
		input = jobstate.InputDescriptor{Type: jobstate.InputType(req.Input.Type), Value: req.Input.Value}
		opts = resolveOptions(req.Options)
	}

	state := jobstate.New(id, input, opts)
	if err := h.Store.Create(r.Context(), state); err != nil {
		h.Logger.Error("create job failed", "job_id", id, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to create job", "INTERNAL_ERROR")
		return
	}

	h.Queue.Enqueue("splitter", id)

	writeJSON(w, http.StatusAccepted, CreateJobResponse{
		JobID:     id,
		Status:    string(state.Status),
		StatusURL: fmt.Sprintf("/v1/transcriptions/jobs/%s", id),
		ResultURL: fmt.Sprintf("/v1/transcriptions/jobs/%s/result", id),
	})
}

func isMultipart(contentType string) bool {
	return len(contentType) >= 10 && contentType[:10] == "multipart/"
}

// parseMultipart handles the multipart form variant of CreateJob: a
// binary "file" part plus optional "input_type" and "options" fields.
// The upload is written to input/original.mp4 before the splitter ever
// runs, per spec.md §6.
func (h *Handlers) parseMultipart(r *http.Request, jobID string) (jobstate.InputDescriptor, jobstate.Options, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return jobstate.InputDescriptor{}, jobstate.Options{}, fmt.Errorf("parse multipart form: %w", err)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return jobstate.InputDescriptor{}, jobstate.Options{}, fmt.Errorf("missing file part: %w", err)
	}
	defer func() { _ = file.Close() }()

	p := jobpaths.New(h.StorageRoot, jobID)
	if err := os.MkdirAll(p.InputDir(), 0o755); err != nil {
		return jobstate.InputDescriptor{}, jobstate.Options{}, fmt.Errorf("create input dir: %w", err)
	}
	dst := p.OriginalMedia()
	out, err := os.Create(dst) // #nosec G304 - dst is job-directory-scoped
	if err != nil {
		return jobstate.InputDescriptor{}, jobstate.Options{}, fmt.Errorf("create upload destination: %w", err)
	}
	defer func() { _ = out.Close() }()
	if _, err := io.Copy(out, file); err != nil {
		return jobstate.InputDescriptor{}, jobstate.Options{}, fmt.Errorf("write upload: %w", err)
	}

	inputType := r.FormValue("input_type")
	if inputType == "" {
		inputType = string(jobstate.InputUpload)
	}

	var opts jobstate.Options
	if raw := r.FormValue("options"); raw != "" {
		var dto OptionsDTO
		if err := json.Unmarshal([]byte(raw), &dto); err != nil {
			return jobstate.InputDescriptor{}, jobstate.Options{}, fmt.Errorf("invalid options JSON: %w", err)
		}
		opts = resolveOptions(&dto)
	} else {
		opts = resolveOptions(nil)
	}

	return jobstate.InputDescriptor{Type: jobstate.InputType(inputType), Value: dst}, opts, nil
}

// GetJob handles GET /v1/transcriptions/jobs/{id}.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	state, err := h.Store.Load(r.Context(), id)
	if err != nil {
		h.jobLoadError(w, id, err)
		return
	}
	if state == nil {
		writeError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// GetResult handles GET /v1/transcriptions/jobs/{id}/result.
func (h *Handlers) GetResult(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	state, err := h.Store.Load(r.Context(), id)
	if err != nil {
		h.jobLoadError(w, id, err)
		return
	}
	if state == nil {
		writeError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
		return
	}
	if state.Status != jobstate.StatusDone {
		writeJSON(w, http.StatusConflict, map[string]string{"status": string(state.Status)})
		return
	}
	writeJSON(w, http.StatusOK, ResultResponse{
		JobID:       id,
		Status:      string(state.Status),
		Result:      state.Result,
		DownloadURL: fmt.Sprintf("/v1/transcriptions/jobs/%s/download", id),
	})
}

// Download handles GET /v1/transcriptions/jobs/{id}/download.
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	state, err := h.Store.Load(r.Context(), id)
	if err != nil {
		h.jobLoadError(w, id, err)
		return
	}
	if state == nil {
		writeError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
		return
	}
	if state.Status != jobstate.StatusDone {
		writeJSON(w, http.StatusConflict, map[string]string{"status": string(state.Status)})
		return
	}

	zipPath := h.paths(id).Zip()
	f, err := os.Open(zipPath) // #nosec G304 - zipPath is job-directory-scoped
	if err != nil {
		writeError(w, http.StatusNotFound, "deliverable not found", "NOT_FOUND")
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(zipPath)))
	if _, err := io.Copy(w, f); err != nil {
		h.Logger.Warn("download stream interrupted", "job_id", id, "error", err.Error())
	}
}

// Cancel handles POST /v1/transcriptions/jobs/{id}/cancel. It is
// idempotent: canceling a job already in a terminal state is a no-op.
func (h *Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	state, err := h.Store.Load(r.Context(), id)
	if err != nil {
		h.jobLoadError(w, id, err)
		return
	}
	if state == nil {
		writeError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
		return
	}
	status := state.Status
	if !state.Status.IsTerminal() {
		if err := h.Store.SetStatus(r.Context(), id, jobstate.StatusCanceled); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to cancel job", "INTERNAL_ERROR")
			return
		}
		status = jobstate.StatusCanceled
	}
	writeJSON(w, http.StatusOK, map[string]string{"job_id": id, "status": string(status)})
}

func (h *Handlers) jobLoadError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, jobstore.ErrStateCorrupted) {
		h.Logger.Error("job state corrupted", "job_id", id, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "job state corrupted", "STATE_CORRUPTED")
		return
	}
	h.Logger.Error("load job failed", "job_id", id, "error", err.Error())
	writeError(w, http.StatusInternalServerError, "failed to load job", "INTERNAL_ERROR")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}
