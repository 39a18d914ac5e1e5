// Package pipeline wires the shared collaborators (JobStore, JobPaths,
// JobLogger, Queue, ErrorSink) and the external ports (Downloader,
// Transcriber, VAD Detector, PDFWriter) into the four durable stage
// workers spec.md §4.3-4.6 names. It generalizes the teacher's single
// monolithic ProcessVideoService.processJob into four independently
// retryable, queue-driven handlers, each a func(ctx, jobID) error
// registerable with a named queue.Queue.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/sealium/transcription-service/internal/asr"
	"github.com/sealium/transcription-service/internal/atomicfile"
	"github.com/sealium/transcription-service/internal/downloader"
	"github.com/sealium/transcription-service/internal/errsink"
	"github.com/sealium/transcription-service/internal/joblog"
	"github.com/sealium/transcription-service/internal/jobpaths"
	"github.com/sealium/transcription-service/internal/jobstate"
	"github.com/sealium/transcription-service/internal/jobstore"
	"github.com/sealium/transcription-service/internal/merge"
	"github.com/sealium/transcription-service/internal/packaging"
	"github.com/sealium/transcription-service/internal/pdfwriter"
	"github.com/sealium/transcription-service/internal/queue"
	"github.com/sealium/transcription-service/internal/segmenter"
	"github.com/sealium/transcription-service/internal/storage"
)

// MediaTool is the subset of mediatool.Tool the pipeline calls, narrowed
// to an interface so stage logic can be exercised against a fake.
type MediaTool interface {
	Duration(ctx context.Context, path string) (float64, error)
	NormalizeWAV(ctx context.Context, src, dst string) error
	ExportChunk(ctx context.Context, src, dst string, start, duration float64) error
	DetectSilence(ctx context.Context, src string, noiseDB, minDurationSec float64) (string, error)
	ValidateWAV(ctx context.Context, path string) error
}

// SegmentationConfig carries the splitter's chunk-planning parameters,
// sourced from the SILENCE_*/VAD_*/MAX_CHUNK_SECONDS environment knobs.
type SegmentationConfig struct {
	SilenceDB          float64
	SilenceMinDuration float64
	MaxChunkSeconds    float64
	VADSampleRate      int
}

// Dependencies bundles every collaborator the stage workers need.
type Dependencies struct {
	Store        jobstore.Store
	StorageRoot  string
	Media        MediaTool
	DirectHTTP   downloader.Downloader
	Delegated    downloader.Downloader
	Transcriber  asr.Transcriber
	VAD          segmenter.Detector
	PDFWriter    pdfwriter.PDFWriter
	ErrorSink    errsink.ErrorSink
	Queue        *queue.Registry
	Segmentation SegmentationConfig
	SponsorText  string
	// Mirror is an optional off-box copy destination for the packaged
	// zip (storage.NullMirror when unconfigured).
	Mirror storage.Mirror
}

// Pipeline implements the four stage-worker handlers as methods with the
// queue.Handler signature func(ctx, jobID) error.
type Pipeline struct {
	deps Dependencies
}

// New creates a Pipeline over deps.
func New(deps Dependencies) *Pipeline {
	return &Pipeline{deps: deps}
}

const (
	stageSplitting    = "splitting"
	stageTranscribing = "transcribing"
	stageMerging      = "merging"
	stagePackaging    = "packaging"
)

func (p *Pipeline) paths(jobID string) jobpaths.Paths {
	return jobpaths.New(p.deps.StorageRoot, jobID)
}

// runStage is the shared top-level wrapper spec.md §7 describes: enter
// the stage's working status, run fn, and on error append the message
// to the job's error list, mark it failed, write a stack trace to the
// job log, report to the ErrorSink, then rethrow so the queue counts
// the failure. A cancellation observed by fn is not an error: the
// stage simply returns without touching status or the error list.
func (p *Pipeline) runStage(
	ctx context.Context,
	jobID, stageName string,
	status jobstate.Status,
	fn func(ctx context.Context, paths jobpaths.Paths, state *jobstate.State, jlog *joblog.Logger) error,
) error {
	paths := p.paths(jobID)

	state, err := p.deps.Store.Load(ctx, jobID)
	if err != nil {
		return fmt.Errorf("pipeline: load job %s: %w", jobID, err)
	}
	if state == nil {
		return fmt.Errorf("pipeline: job %s not found", jobID)
	}
	if state.Status == jobstate.StatusDone || state.Status == jobstate.StatusCanceled {
		// Idempotent re-delivery after the job already reached one of
		// these two truly absorbing states: nothing left for this stage
		// to do. Failed is deliberately excluded here: the queue retries
		// a failed delivery (RQ_RETRY_MAX), and jobstate.CanTransition
		// allows Failed to re-enter a working status precisely so that
		// retry can run the stage body again instead of being silently
		// swallowed as a no-op success.
		return nil
	}

	jlog, err := joblog.Open(paths.JobLog())
	if err != nil {
		return fmt.Errorf("pipeline: open job log for %s: %w", jobID, err)
	}
	defer func() { _ = jlog.Close() }()

	if err := p.deps.Store.SetStatus(ctx, jobID, status); err != nil {
		return fmt.Errorf("pipeline: enter %s for %s: %w", status, jobID, err)
	}
	state, err = p.deps.Store.Load(ctx, jobID)
	if err != nil {
		return fmt.Errorf("pipeline: reload job %s: %w", jobID, err)
	}

	runErr := fn(ctx, paths, state, jlog)
	if runErr == nil {
		return nil
	}
	if errors.Is(runErr, errCanceled) {
		jlog.Info(stageName + " observed cancellation, stopping")
		return nil
	}

	stack := string(debug.Stack())
	if err := p.deps.Store.AddError(ctx, jobID, runErr.Error()); err != nil {
		jlog.Error("failed to record job error", "error", err.Error())
	}
	if err := p.deps.Store.SetStatus(ctx, jobID, jobstate.StatusFailed); err != nil {
		jlog.Error("failed to mark job failed", "error", err.Error())
	}
	jlog.Trace(stageName, runErr, stack)
	if p.deps.ErrorSink != nil {
		p.deps.ErrorSink.Report(ctx, jobID, stageName, runErr)
	}
	return runErr
}

func (p *Pipeline) isCanceled(ctx context.Context, jobID string) (bool, error) {
	state, err := p.deps.Store.Load(ctx, jobID)
	if err != nil {
		return false, err
	}
	if state == nil {
		return false, nil
	}
	return state.Status == jobstate.StatusCanceled, nil
}

// Splitter is the splitter stage worker, registerable with the
// "splitter" named queue.
func (p *Pipeline) Splitter(ctx context.Context, jobID string) error {
	return p.runStage(ctx, jobID, stageSplitting, jobstate.StatusSplitting, p.runSplitter)
}

func (p *Pipeline) runSplitter(ctx context.Context, paths jobpaths.Paths, state *jobstate.State, jlog *joblog.Logger) error {
	if err := p.ensureOriginalMedia(ctx, paths, state); err != nil {
		return err
	}
	if err := p.ensureAudioWAV(ctx, paths); err != nil {
		return err
	}

	plan, existed, err := loadChunksPlan(paths)
	if err != nil {
		return err
	}
	if !existed {
		plan, err = p.planChunks(ctx, paths, state)
		if err != nil {
			return err
		}
		if err := writeChunksPlan(paths, plan); err != nil {
			return err
		}
	}

	for _, entry := range plan {
		canceled, err := p.isCanceled(ctx, state.ID)
		if err != nil {
			return err
		}
		if canceled {
			return errCanceled
		}

		dst := paths.ChunkWAV(entry.Index)
		if _, err := os.Stat(dst); err == nil {
			continue // already exported: idempotent re-run
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("%w: stat chunk %d: %v", ErrMediaToolFailed, entry.Index, err)
		}

		duration := entry.End - entry.Start
		if duration < 0.01 {
			duration = 0.01
		}
		if err := p.deps.Media.ExportChunk(ctx, paths.AudioWAV(), dst, entry.Start, duration); err != nil {
			return fmt.Errorf("%w: export chunk %d: %v", ErrMediaToolFailed, entry.Index, err)
		}
		if err := p.deps.Media.ValidateWAV(ctx, dst); err != nil {
			return fmt.Errorf("%w: validate chunk %d: %v", ErrMediaToolFailed, entry.Index, err)
		}
		jlog.Info("exported chunk", "index", entry.Index, "start", entry.Start, "end", entry.End)
	}

	total := len(plan)
	if err := p.deps.Store.SetProgress(ctx, state.ID, &total, nil); err != nil {
		return fmt.Errorf("pipeline: set chunks_total: %w", err)
	}
	p.deps.Queue.Enqueue("transcriber", state.ID)
	return nil
}

// ensureOriginalMedia implements spec.md §4.3 step 1's source-selection
// rule for materializing input/original.mp4.
func (p *Pipeline) ensureOriginalMedia(ctx context.Context, paths jobpaths.Paths, state *jobstate.State) error {
	dst := paths.OriginalMedia()
	if _, err := os.Stat(dst); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: stat original media: %v", ErrMediaToolFailed, err)
	}

	switch state.Input.Type {
	case jobstate.InputUpload:
		return fmt.Errorf("%w: upload not found at %s", ErrMissingUpload, dst)
	case jobstate.InputPath:
		if err := copyFile(state.Input.Value, dst); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("%w: %s", ErrInputNotFound, state.Input.Value)
			}
			return fmt.Errorf("%w: copy %s: %v", ErrInputNotFound, state.Input.Value, err)
		}
		return nil
	case jobstate.InputURL:
		dl := p.selectDownloader(state.Input.Value)
		if err := dl.Download(ctx, state.Input.Value, state.Options.CookiesFromBrowser, dst); err != nil {
			return fmt.Errorf("%w: %v", ErrDownloaderFailed, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown input type %q", ErrInputNotFound, state.Input.Type)
	}
}

// selectDownloader implements spec.md §4.3 step 1's url source-selection
// rule: plain http(s) URLs ending in .mp4 stream directly; everything
// else (platform pages, non-.mp4 media) is delegated to the external
// downloader service.
func (p *Pipeline) selectDownloader(rawURL string) downloader.Downloader {
	u, err := url.Parse(rawURL)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") && strings.HasSuffix(strings.ToLower(u.Path), ".mp4") {
		return p.deps.DirectHTTP
	}
	return p.deps.Delegated
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) // #nosec G304 - src is job-input-configured
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp := dst + ".tmp"
	out, err := os.Create(tmp) // #nosec G304 - dst is job-directory-scoped
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

func (p *Pipeline) ensureAudioWAV(ctx context.Context, paths jobpaths.Paths) error {
	if _, err := os.Stat(paths.AudioWAV()); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: stat audio.wav: %v", ErrMediaToolFailed, err)
	}
	if err := os.MkdirAll(paths.InputDir(), 0o755); err != nil {
		return fmt.Errorf("%w: mkdir input dir: %v", ErrMediaToolFailed, err)
	}
	if err := p.deps.Media.NormalizeWAV(ctx, paths.OriginalMedia(), paths.AudioWAV()); err != nil {
		return fmt.Errorf("%w: normalize wav: %v", ErrMediaToolFailed, err)
	}
	return nil
}

func (p *Pipeline) planChunks(ctx context.Context, paths jobpaths.Paths, state *jobstate.State) ([]segmenter.Entry, error) {
	duration, err := p.deps.Media.Duration(ctx, paths.AudioWAV())
	if err != nil {
		return nil, fmt.Errorf("%w: probe duration: %v", ErrSegmentationFailed, err)
	}

	cfg := p.deps.Segmentation
	switch state.Options.ChunkMode {
	case jobstate.ChunkModeVAD:
		if p.deps.VAD == nil {
			return nil, fmt.Errorf("%w: vad mode requested but no detector configured", ErrSegmentationFailed)
		}
		frames, err := p.deps.VAD.Detect(ctx, paths.AudioWAV())
		if err != nil {
			return nil, fmt.Errorf("%w: vad detect: %v", ErrSegmentationFailed, err)
		}
		return segmenter.PlanFromVAD(frames, cfg.VADSampleRate, duration, cfg.MaxChunkSeconds), nil
	default:
		text, err := p.deps.Media.DetectSilence(ctx, paths.AudioWAV(), cfg.SilenceDB, cfg.SilenceMinDuration)
		if err != nil {
			return nil, fmt.Errorf("%w: silence detect: %v", ErrSegmentationFailed, err)
		}
		return segmenter.PlanFromSilenceDetect(text, duration, cfg.MaxChunkSeconds), nil
	}
}

// Transcriber is the transcriber stage worker, registerable with the
// "transcriber" named queue.
func (p *Pipeline) Transcriber(ctx context.Context, jobID string) error {
	return p.runStage(ctx, jobID, stageTranscribing, jobstate.StatusTranscribing, p.runTranscriber)
}

func (p *Pipeline) runTranscriber(ctx context.Context, paths jobpaths.Paths, state *jobstate.State, jlog *joblog.Logger) error {
	plan, existed, err := loadChunksPlan(paths)
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("%w: chunks.json missing for job %s", ErrSegmentationFailed, state.ID)
	}

	missing := make([]segmenter.Entry, 0, len(plan))
	done := 0
	for _, entry := range plan {
		if _, err := os.Stat(paths.PartialJSON(entry.Index)); err == nil {
			done++
			continue
		}
		missing = append(missing, entry)
	}

	if len(missing) == 0 {
		// Idempotent re-entry: every chunk already has a partial.
		p.deps.Queue.Enqueue("merger", state.ID)
		return nil
	}

	if err := p.deps.Store.SetProgress(ctx, state.ID, nil, &done); err != nil {
		return fmt.Errorf("pipeline: set chunks_done: %w", err)
	}

	maxParallel := state.Options.MaxParallelChunks
	if maxParallel <= 0 {
		maxParallel = 1
	}
	if maxParallel > len(missing) {
		maxParallel = len(missing)
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
		canceled bool
	)
	tasks := make(chan segmenter.Entry)

	go func() {
		defer close(tasks)
		for _, entry := range missing {
			// Cancellation checkpoint: "before draining a new chunk
			// result in the transcriber" (spec.md §5) — checked here,
			// before handing the next chunk to a worker.
			isCanceled, err := p.isCanceled(ctx, state.ID)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			if isCanceled {
				mu.Lock()
				canceled = true
				mu.Unlock()
				return
			}
			select {
			case tasks <- entry:
			case <-ctx.Done():
				return
			}
		}
	}()

	for i := 0; i < maxParallel; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range tasks {
				if err := p.transcribeChunk(ctx, paths, state, entry); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("%w: chunk %d: %v", ErrAsrFailed, entry.Index, err)
					}
					mu.Unlock()
					continue
				}
				mu.Lock()
				done++
				newDone := done
				mu.Unlock()
				if err := p.deps.Store.SetProgress(ctx, state.ID, nil, &newDone); err != nil {
					jlog.Warn("failed to update chunk progress", "error", err.Error())
				}
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	if canceled {
		return errCanceled
	}

	p.deps.Queue.Enqueue("merger", state.ID)
	return nil
}

func (p *Pipeline) transcribeChunk(ctx context.Context, paths jobpaths.Paths, state *jobstate.State, entry segmenter.Entry) error {
	raw, err := p.deps.Transcriber.Transcribe(ctx, paths.ChunkWAV(entry.Index), state.Options.Language)
	if err != nil {
		return err
	}
	shifted := asr.ShiftAndNormalize(raw, entry.Start)

	segments := make([]merge.Segment, len(shifted))
	for i, s := range shifted {
		segments[i] = merge.Segment{Start: s.Start, End: s.End, Text: s.Text}
	}
	partial := Partial{
		ChunkIndex: entry.Index,
		ChunkStart: entry.Start,
		ChunkEnd:   entry.End,
		Segments:   segments,
		Text:       merge.Text(segments),
	}
	if err := writePartial(paths.PartialJSON(entry.Index), partial); err != nil {
		return fmt.Errorf("%w: %v", ErrPartialWriteFailed, err)
	}
	return nil
}

// Merger is the merger stage worker, registerable with the "merger"
// named queue.
func (p *Pipeline) Merger(ctx context.Context, jobID string) error {
	return p.runStage(ctx, jobID, stageMerging, jobstate.StatusMerging, p.runMerger)
}

func (p *Pipeline) runMerger(ctx context.Context, paths jobpaths.Paths, state *jobstate.State, jlog *joblog.Logger) error {
	canceled, err := p.isCanceled(ctx, state.ID)
	if err != nil {
		return err
	}
	if canceled {
		return errCanceled
	}

	partials, err := readAllPartials(paths)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMergeFailed, err)
	}

	var all []merge.Segment
	for _, part := range partials {
		all = append(all, part.Segments...)
	}
	normalized := merge.Normalize(all)

	if err := atomicfile.WriteFile(paths.FinalTXT(), []byte(merge.Text(normalized)+"\n"), 0o644); err != nil {
		return fmt.Errorf("%w: write final.txt: %v", ErrMergeFailed, err)
	}

	if state.Options.ProduceJSON {
		data, err := merge.FinalJSON(normalized)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMergeFailed, err)
		}
		if err := atomicfile.WriteFile(paths.FinalJSON(), data, 0o644); err != nil {
			return fmt.Errorf("%w: write final.json: %v", ErrMergeFailed, err)
		}
	}

	if state.Options.ProduceVTT {
		if err := atomicfile.WriteFile(paths.FinalVTT(), []byte(merge.VTT(normalized)), 0o644); err != nil {
			return fmt.Errorf("%w: write final.vtt: %v", ErrMergeFailed, err)
		}
	}

	jlog.Info("merge complete", "segments", len(normalized))
	p.deps.Queue.Enqueue("packager", state.ID)
	return nil
}

// Packager is the packager stage worker, registerable with the
// "packager" named queue.
func (p *Pipeline) Packager(ctx context.Context, jobID string) error {
	return p.runStage(ctx, jobID, stagePackaging, jobstate.StatusPackaging, p.runPackager)
}

func (p *Pipeline) runPackager(ctx context.Context, paths jobpaths.Paths, state *jobstate.State, jlog *joblog.Logger) error {
	canceled, err := p.isCanceled(ctx, state.ID)
	if err != nil {
		return err
	}
	if canceled {
		return errCanceled
	}

	if state.Options.ProducePDF {
		if err := p.renderPDF(ctx, paths, state); err != nil {
			return err
		}
	}

	manifestTargets := paths.ManifestTargets()
	targets := make([]packaging.Target, len(manifestTargets))
	for i, t := range manifestTargets {
		targets[i] = packaging.Target{Rel: t.Rel, Abs: t.Abs}
	}
	manifest, err := packaging.BuildManifest(targets)
	if err != nil {
		return fmt.Errorf("%w: build manifest: %v", ErrPackagingFailed, err)
	}
	manifestData, err := manifest.MarshalJSONPretty()
	if err != nil {
		return fmt.Errorf("%w: marshal manifest: %v", ErrPackagingFailed, err)
	}
	if err := atomicfile.WriteFile(paths.ManifestFile(), manifestData, 0o644); err != nil {
		return fmt.Errorf("%w: write manifest: %v", ErrPackagingFailed, err)
	}
	hashesData := []byte(manifest.HashesSHA256Lines())
	if err := atomicfile.WriteFile(paths.HashesFile(), hashesData, 0o644); err != nil {
		return fmt.Errorf("%w: write hashes.sha256: %v", ErrPackagingFailed, err)
	}

	entries := []packaging.ZipEntry{
		{Abs: paths.OriginalMedia(), ArchiveName: "video.mp4"},
		{Abs: paths.TranscriptPDF(), ArchiveName: "transcript.pdf"},
		{Abs: paths.FinalTXT(), ArchiveName: "transcript.txt"},
		{Abs: paths.ManifestFile(), ArchiveName: "manifest.json"},
		{Abs: paths.JobLog(), ArchiveName: "logs/job.log"},
	}
	if state.Options.ProduceJSON {
		entries = append(entries, packaging.ZipEntry{Abs: paths.FinalJSON(), ArchiveName: "transcript.json"})
	}
	if state.Options.ProduceVTT {
		entries = append(entries, packaging.ZipEntry{Abs: paths.FinalVTT(), ArchiveName: "transcript.vtt"})
	}

	zipPath := paths.Zip()
	if err := packaging.BuildZip(zipPath, entries); err != nil {
		return fmt.Errorf("%w: build zip: %v", ErrPackagingFailed, err)
	}

	mirrorURL, err := p.mirrorZip(ctx, state.ID, zipPath)
	if err != nil {
		jlog.Warn("mirror upload failed, continuing with local deliverable only", "error", err.Error())
	}

	if err := p.setResult(ctx, state.ID, zipPath, paths.ZipDownloadName(), mirrorURL); err != nil {
		return fmt.Errorf("%w: %v", ErrPackagingFailed, err)
	}
	if err := p.deps.Store.SetStatus(ctx, state.ID, jobstate.StatusDone); err != nil {
		return fmt.Errorf("%w: %v", ErrPackagingFailed, err)
	}

	jlog.Info("packaging complete", "zip", zipPath)
	return nil
}

func (p *Pipeline) renderPDF(ctx context.Context, paths jobpaths.Paths, state *jobstate.State) error {
	finalText, err := os.ReadFile(paths.FinalTXT()) // #nosec G304 - path is job-directory-scoped
	if err != nil {
		return fmt.Errorf("%w: read final.txt: %v", ErrPackagingFailed, err)
	}
	req := pdfwriter.Request{
		Title:           fmt.Sprintf("Transcription %s", state.ID),
		TranscriptLines: pdfwriter.NonBlankLines(string(finalText)),
		SponsorText:     p.deps.SponsorText,
	}
	if state.Input.Type == jobstate.InputURL {
		req.SourceURL = state.Input.Value
	}
	if err := p.deps.PDFWriter.WritePDF(ctx, req, paths.TranscriptPDF()); err != nil {
		return fmt.Errorf("%w: write pdf: %v", ErrPackagingFailed, err)
	}
	return nil
}

// mirrorZip copies zipPath to the configured storage.Mirror, if any. A
// disabled (default) mirror is a no-op, not a failure: the deliverable
// always exists locally regardless.
func (p *Pipeline) mirrorZip(ctx context.Context, jobID, zipPath string) (string, error) {
	if p.deps.Mirror == nil || !p.deps.Mirror.Enabled() {
		return "", nil
	}
	f, err := os.Open(zipPath) // #nosec G304 - zipPath is job-directory-scoped
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	key := fmt.Sprintf("jobs/%s/%s", jobID, filepath.Base(zipPath))
	return p.deps.Mirror.Upload(ctx, key, f)
}

func (p *Pipeline) setResult(ctx context.Context, jobID, zipPath, downloadName, mirrorURL string) error {
	state, err := p.deps.Store.Load(ctx, jobID)
	if err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("pipeline: job %s not found", jobID)
	}
	state.Result = &jobstate.Result{ZipPath: zipPath, DownloadName: downloadName, MirrorURL: mirrorURL}
	return p.deps.Store.Save(ctx, state)
}
