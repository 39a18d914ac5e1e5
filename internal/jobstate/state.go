// Package jobstate defines the Job aggregate persisted by the job store.
// It holds the data model described for the transcription pipeline: input
// descriptor, options, status, progress, timestamps and errors. Status
// transitions follow a fixed, non-regressing order with two absorbing
// terminal states.
package jobstate

import (
	"errors"
	"time"
)

// Status represents the current stage of a Job's lifecycle.
type Status string

// Pipeline statuses, in non-regressing order. Done and Canceled are
// absorbing; Failed is terminal but may re-enter a working status (see
// CanTransition).
const (
	StatusQueued       Status = "queued"
	StatusSplitting    Status = "splitting"
	StatusTranscribing Status = "transcribing"
	StatusMerging      Status = "merging"
	StatusPackaging    Status = "packaging"
	StatusDone         Status = "done"
	StatusFailed       Status = "failed"
	StatusCanceled     Status = "canceled"
)

// order assigns a rank to queued, the working statuses and done for
// regression checks. Failed and Canceled are not ranked: either may
// supersede any non-terminal status (see CanTransition).
var order = map[Status]int{
	StatusQueued:       0,
	StatusSplitting:    1,
	StatusTranscribing: 2,
	StatusMerging:      3,
	StatusPackaging:    4,
	StatusDone:         5,
}

// IsTerminal reports whether s is an absorbing end state.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed || s == StatusCanceled
}

// IsWorking reports whether s is one of the four active pipeline stages.
func (s Status) IsWorking() bool {
	switch s {
	case StatusSplitting, StatusTranscribing, StatusMerging, StatusPackaging:
		return true
	default:
		return false
	}
}

// ErrStatusRegression is returned when a status transition would move the
// job backwards in the pipeline order.
var ErrStatusRegression = errors.New("jobstate: status regression")

// CanTransition reports whether a job may move from "from" to "to".
// Canceled may supersede any non-terminal status. Done and Canceled are
// absorbing: nothing transitions out of them.
//
// Failed is terminal from the outside (IsTerminal reports true, and the
// HTTP API treats it as a dead end) but it is NOT absorbing from a queue
// retry's point of view: a stage worker marks a job failed on every
// attempt that errors, exactly as the queue-retried Python workers this
// was ported from do, so a subsequent re-delivery of the same stage must
// be able to re-enter that stage's working status and try again. Without
// this, a transient failure (a flaky download, a momentarily unavailable
// ASR engine) would permanently fail the job on its very first attempt,
// since the retried invocation could never move the status back off
// Failed.
func CanTransition(from, to Status) bool {
	if from == StatusDone || from == StatusCanceled {
		return false
	}
	if to == StatusCanceled {
		return true
	}
	if from == StatusFailed {
		return to.IsWorking()
	}
	fromRank, fromOK := order[from]
	toRank, toOK := order[to]
	if !fromOK || !toOK {
		// to == StatusFailed is always legal from a non-terminal state.
		return to == StatusFailed
	}
	return toRank >= fromRank
}

// InputType tags the source of the media to transcribe.
type InputType string

const (
	InputURL    InputType = "url"
	InputPath   InputType = "path"
	InputUpload InputType = "upload"
)

// InputDescriptor identifies where the source media comes from.
type InputDescriptor struct {
	Type  InputType `json:"type"`
	Value string    `json:"value"`
}

// ChunkMode selects the audio segmentation strategy.
type ChunkMode string

const (
	ChunkModeSilence ChunkMode = "silence"
	ChunkModeVAD     ChunkMode = "vad"
)

// Options configures a transcription job. Zero values are replaced by
// DefaultOptions defaults during job creation.
type Options struct {
	Language           string    `json:"language"`
	ChunkMode          ChunkMode `json:"chunk_mode"`
	MaxParallelChunks  int       `json:"max_parallel_chunks"`
	ProduceJSON        bool      `json:"produce_json"`
	ProduceVTT         bool      `json:"produce_vtt"`
	ProducePDF         bool      `json:"produce_pdf"`
	CookiesFromBrowser string    `json:"cookies_from_browser,omitempty"`
}

// DefaultOptions returns the option defaults from spec §3.
func DefaultOptions() Options {
	return Options{
		Language:          "es",
		ChunkMode:         ChunkModeSilence,
		MaxParallelChunks: 2,
		ProduceJSON:       true,
		ProduceVTT:        true,
		ProducePDF:        true,
	}
}

// WithDefaults fills zero-valued fields of o with DefaultOptions values.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.Language == "" {
		o.Language = d.Language
	}
	if o.ChunkMode == "" {
		o.ChunkMode = d.ChunkMode
	}
	if o.MaxParallelChunks <= 0 {
		o.MaxParallelChunks = d.MaxParallelChunks
	}
	return o
}

// Progress tracks chunk-level completion. Percent is derived, never set
// directly, so it always stays consistent with ChunksDone/ChunksTotal.
type Progress struct {
	ChunksTotal int `json:"chunks_total"`
	ChunksDone  int `json:"chunks_done"`
	Percent     int `json:"percent"`
}

// Recompute derives Percent from ChunksDone/ChunksTotal using floor
// division, or 0 when ChunksTotal is not yet known.
func (p *Progress) Recompute() {
	if p.ChunksTotal <= 0 {
		p.Percent = 0
		return
	}
	p.Percent = (100 * p.ChunksDone) / p.ChunksTotal
}

// Timestamps records the lifecycle milestones of a job.
type Timestamps struct {
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Result holds the packager's output once a job completes.
type Result struct {
	ZipPath      string `json:"zip_path"`
	DownloadName string `json:"download_name"`
	// MirrorURL is set when the packager successfully copied the zip to
	// an off-box storage.Mirror; empty when no mirror is configured.
	MirrorURL string `json:"mirror_url,omitempty"`
}

// schemaVersion is bumped whenever the on-disk JobState shape changes in
// a way that would make an older reader misinterpret it.
const schemaVersion = 1

// State is the durable record for one transcription job. It is the
// authoritative source of truth on disk at jobs/<id>/job_state.json; a
// cache mirror may exist but must never be trusted over the file on
// restart.
type State struct {
	SchemaVersion int             `json:"schema_version"`
	ID            string          `json:"id"`
	Input         InputDescriptor `json:"input"`
	Options       Options         `json:"options"`
	Status        Status          `json:"status"`
	Progress      Progress        `json:"progress"`
	Timestamps    Timestamps      `json:"timestamps"`
	Errors        []string        `json:"errors"`
	Result        *Result         `json:"result,omitempty"`
}

// New creates a job in the initial queued state for the given input and
// options (defaults applied).
func New(id string, input InputDescriptor, opts Options) *State {
	now := time.Now().UTC()
	return &State{
		SchemaVersion: schemaVersion,
		ID:            id,
		Input:         input,
		Options:       opts.WithDefaults(),
		Status:        StatusQueued,
		Timestamps: Timestamps{
			CreatedAt: now,
			UpdatedAt: now,
		},
		Errors: []string{},
	}
}

// SetStatus transitions the job to status s, stamping StartedAt on first
// entry into a working status and FinishedAt on first entry into a
// terminal status. Returns ErrStatusRegression if the transition is not
// allowed.
func (s *State) SetStatus(status Status) error {
	if !CanTransition(s.Status, status) {
		return ErrStatusRegression
	}
	now := time.Now().UTC()
	s.Status = status
	s.Timestamps.UpdatedAt = now
	if status.IsWorking() && s.Timestamps.StartedAt == nil {
		s.Timestamps.StartedAt = &now
	}
	if status.IsTerminal() && s.Timestamps.FinishedAt == nil {
		s.Timestamps.FinishedAt = &now
	}
	return nil
}

// SetProgress updates chunk counters and recomputes Percent. Either
// argument may be nil to leave that field unchanged. ChunksDone never
// moves backwards.
func (s *State) SetProgress(total, done *int) {
	if total != nil {
		s.Progress.ChunksTotal = *total
	}
	if done != nil && *done > s.Progress.ChunksDone {
		s.Progress.ChunksDone = *done
	}
	s.Progress.Recompute()
	s.Timestamps.UpdatedAt = time.Now().UTC()
}

// AddError appends msg to the job's error list and bumps UpdatedAt.
func (s *State) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
	s.Timestamps.UpdatedAt = time.Now().UTC()
}

// Clone returns a deep copy suitable for handing to a caller without
// aliasing internal slices/pointers.
func (s *State) Clone() *State {
	c := *s
	c.Errors = append([]string(nil), s.Errors...)
	if s.Timestamps.StartedAt != nil {
		t := *s.Timestamps.StartedAt
		c.Timestamps.StartedAt = &t
	}
	if s.Timestamps.FinishedAt != nil {
		t := *s.Timestamps.FinishedAt
		c.Timestamps.FinishedAt = &t
	}
	if s.Result != nil {
		r := *s.Result
		c.Result = &r
	}
	return &c
}
