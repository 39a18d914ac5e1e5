// Package bootstrap wires every collaborator internal/pipeline needs
// (JobStore, Queue registry, media tool, downloader, ASR client, PDF
// writer, VAD detector, storage mirror, error sink) from a loaded
// config.Config, the same dependency-assembly role the teacher's
// internal/bootstrap plays for job.ProcessVideoService.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/sealium/transcription-service/internal/asr"
	"github.com/sealium/transcription-service/internal/config"
	"github.com/sealium/transcription-service/internal/downloader"
	"github.com/sealium/transcription-service/internal/errsink"
	"github.com/sealium/transcription-service/internal/jobstore"
	"github.com/sealium/transcription-service/internal/mediatool"
	"github.com/sealium/transcription-service/internal/pdfwriter"
	"github.com/sealium/transcription-service/internal/pipeline"
	"github.com/sealium/transcription-service/internal/queue"
	"github.com/sealium/transcription-service/internal/segmenter"
	"github.com/sealium/transcription-service/internal/storage"
)

// Dependencies holds everything cmd/server wires into the HTTP handlers
// and the queue-driven pipeline.
type Dependencies struct {
	Store    jobstore.Store
	Queue    *queue.Registry
	Pipeline *pipeline.Pipeline
}

// NewDependencies builds every collaborator from cfg and registers the
// four stage-worker handlers with their named queues, ready for
// Dependencies.Queue.RunAll.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	cache := jobstore.NewMemoryCache()
	store := jobstore.New(cfg.StorageRoot, cache)

	mirror, err := initMirror(cfg, logger)
	if err != nil {
		return nil, err
	}

	media := mediatool.New(cfg.FFmpegPath, cfg.FFprobePath)
	if ffPath, ffErr := exec.LookPath("ffmpeg"); ffErr != nil {
		logger.Warn("ffmpeg not found in PATH; media operations will fail")
	} else {
		logger.Info("media tool initialized", slog.String("ffmpeg_path", ffPath))
	}

	timeout := time.Duration(cfg.ExternalHTTPTimeoutSec) * time.Second
	directHTTP := downloader.NewDirectHTTP()
	delegated := downloader.NewDelegated(cfg.DownloaderServiceURL, timeout)
	logger.Info("downloader adapters initialized",
		slog.String("delegated_url", cfg.DownloaderServiceURL),
	)

	asrClient := asr.NewHTTPClient(cfg.ASRServiceURL, timeout)
	transcriber := asr.NewPooledModel(cfg.MaxParallelChunks, func() (asr.Transcriber, error) {
		return asrClient, nil
	})
	logger.Info("asr client initialized", slog.String("asr_service_url", cfg.ASRServiceURL))

	var vad segmenter.Detector
	if cfg.VADServiceURL != "" {
		vad = segmenter.NewHTTPDetector(
			cfg.VADServiceURL,
			cfg.SileroVADModelPath,
			cfg.VADThreshold,
			cfg.VADMinSpeechMs,
			cfg.VADMinSilenceMs,
			timeout,
		)
		logger.Info("vad detector initialized", slog.String("vad_service_url", cfg.VADServiceURL))
	} else {
		logger.Info("vad detector disabled; chunk_mode=vad jobs will fail until VAD_SERVICE_URL is set")
	}

	pdf := pdfwriter.NewPandocWriter(cfg.PandocPath)

	sink := errsink.NewLoggingSink(logger)

	registry := queue.NewRegistry()

	deps := pipeline.Dependencies{
		Store:       store,
		StorageRoot: cfg.StorageRoot,
		Media:       media,
		DirectHTTP:  directHTTP,
		Delegated:   delegated,
		Transcriber: transcriber,
		VAD:         vad,
		PDFWriter:   pdf,
		ErrorSink:   sink,
		Segmentation: pipeline.SegmentationConfig{
			SilenceDB:          cfg.SilenceDB,
			SilenceMinDuration: cfg.SilenceMinDuration,
			MaxChunkSeconds:    cfg.MaxChunkSeconds,
			VADSampleRate:      16000,
		},
		SponsorText: cfg.SponsorText,
		Mirror:      mirror,
		Queue:       registry,
	}

	p := pipeline.New(deps)

	intervals, err := queue.ParseIntervals(cfg.RQRetryIntervals, cfg.RQRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: parse retry intervals: %w", err)
	}
	policy := queue.RetryPolicy{MaxRetries: cfg.RQRetryMax, Intervals: intervals}

	registry.Register(queue.New("splitter", policy, p.Splitter, 0))
	registry.Register(queue.New("transcriber", policy, p.Transcriber, 0))
	registry.Register(queue.New("merger", policy, p.Merger, 0))
	registry.Register(queue.New("packager", policy, p.Packager, 0))

	return &Dependencies{Store: store, Queue: registry, Pipeline: p}, nil
}

// initMirror builds the configured storage.Mirror (S3-backed when
// S3Enabled, otherwise a no-op NullMirror), mirroring the teacher's
// initStorage switch on cfg.S3Enabled().
func initMirror(cfg *config.Config, logger *slog.Logger) (storage.Mirror, error) {
	if !cfg.S3Enabled() {
		logger.Info("artifact mirror disabled (no S3 bucket/region configured)")
		return storage.NullMirror{}, nil
	}

	s3Cfg := storage.S3Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	}
	mirror, err := storage.NewS3Mirror(context.Background(), s3Cfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create S3 mirror: %w", err)
	}
	logger.Info("S3 artifact mirror configured",
		slog.String("bucket", cfg.S3Bucket),
		slog.String("region", cfg.S3Region),
	)
	return mirror, nil
}
