// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Config holds every environment-configurable setting spec.md §6 names,
// plus the S3 mirror and HTTP server knobs the expanded spec adds.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// StorageRoot is the filesystem root under which jobs/<id>/ trees live.
	StorageRoot string `env:"STORAGE_ROOT, default=./data" json:"storage_root"`

	// Queue/cache backend
	RedisURL string `env:"REDIS_URL, default=redis://localhost:6379/0" json:"redis_url"`

	// Retry policy (spec.md §4.2)
	RQRetryMax       int    `env:"RQ_RETRY_MAX, default=3" json:"rq_retry_max"`
	RQRetryInterval  int    `env:"RQ_RETRY_INTERVAL, default=10" json:"rq_retry_interval"`
	RQRetryIntervals string `env:"RQ_RETRY_INTERVALS, default=10,60,300" json:"rq_retry_intervals"`

	// Pipeline defaults (spec.md §3, §4.3)
	MaxParallelChunks  int     `env:"MAX_PARALLEL_CHUNKS, default=2" json:"max_parallel_chunks"`
	ChunkMode          string  `env:"CHUNK_MODE, default=silence" json:"chunk_mode"`
	SilenceDB          float64 `env:"SILENCE_DB, default=-35" json:"silence_db"`
	SilenceMinDuration float64 `env:"SILENCE_MIN_DURATION, default=0.6" json:"silence_min_duration"`
	MaxChunkSeconds    float64 `env:"MAX_CHUNK_SECONDS, default=120" json:"max_chunk_seconds"`

	// VAD tuning (spec.md §4.3 vad mode, §6)
	VADThreshold       float64 `env:"VAD_THRESHOLD, default=0.5" json:"vad_threshold"`
	VADMinSpeechMs     int     `env:"VAD_MIN_SPEECH_MS, default=250" json:"vad_min_speech_ms"`
	VADMinSilenceMs    int     `env:"VAD_MIN_SILENCE_MS, default=100" json:"vad_min_silence_ms"`
	SileroVADModelPath string  `env:"SILERO_VAD_MODEL_PATH" json:"silero_vad_model_path,omitempty"`

	// ASR (spec.md §3, §6)
	TranscriptionDefaultLang string `env:"TRANSCRIPTION_DEFAULT_LANG, default=es" json:"transcription_default_lang"`
	TranscriptionFWModel     string `env:"TRANSCRIPTION_FW_MODEL, default=large-v3" json:"transcription_fw_model"`
	TranscriptionFWDevice    string `env:"TRANSCRIPTION_FW_DEVICE, default=cpu" json:"transcription_fw_device"`
	TranscriptionFWCompute   string `env:"TRANSCRIPTION_FW_COMPUTE, default=int8" json:"transcription_fw_compute"`

	// Packaging
	SponsorText string `env:"SPONSOR_TEXT" json:"sponsor_text,omitempty"`

	// External collaborator endpoints (spec.md §9 abstract-port adapters)
	ASRServiceURL        string `env:"ASR_SERVICE_URL, default=http://localhost:9000" json:"asr_service_url"`
	DownloaderServiceURL string `env:"DOWNLOADER_SERVICE_URL, default=http://localhost:9100" json:"downloader_service_url"`
	VADServiceURL        string `env:"VAD_SERVICE_URL" json:"vad_service_url,omitempty"`
	FFmpegPath           string `env:"FFMPEG_PATH" json:"ffmpeg_path,omitempty"`
	FFprobePath          string `env:"FFPROBE_PATH" json:"ffprobe_path,omitempty"`
	PandocPath           string `env:"PANDOC_PATH" json:"pandoc_path,omitempty"`
	ExternalHTTPTimeoutSec int  `env:"EXTERNAL_HTTP_TIMEOUT_SEC, default=120" json:"external_http_timeout_sec"`

	// QueueWorkersPerStage bounds how many goroutines drain each of the
	// four named stage queues concurrently (spec.md §5's "pool of
	// workers" schedules stage invocations across jobs).
	QueueWorkersPerStage int `env:"QUEUE_WORKERS_PER_STAGE, default=4" json:"queue_workers_per_stage"`

	// Optional S3 mirror settings (expansion, see SPEC_FULL.md §2)
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"`
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`
}

// S3Enabled returns true if S3 mirror configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive
// values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, StorageRoot: %s, ChunkMode: %s, MaxParallelChunks: %d, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.StorageRoot,
		c.ChunkMode,
		c.MaxParallelChunks,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
