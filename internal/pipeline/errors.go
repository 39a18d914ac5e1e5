package pipeline

import "errors"

// Sentinel errors for the abstract error taxonomy named by spec.md §7.
// Stage workers wrap the concrete cause with one of these so callers can
// classify failures with errors.Is without string matching.
var (
	ErrInputNotFound      = errors.New("pipeline: input not found")
	ErrMissingUpload      = errors.New("pipeline: missing upload")
	ErrDownloaderFailed   = errors.New("pipeline: downloader failed")
	ErrMediaToolFailed    = errors.New("pipeline: media tool failed")
	ErrSegmentationFailed = errors.New("pipeline: segmentation failed")
	ErrAsrFailed          = errors.New("pipeline: asr failed")
	ErrPartialWriteFailed = errors.New("pipeline: partial write failed")
	ErrMergeFailed        = errors.New("pipeline: merge failed")
	ErrPackagingFailed    = errors.New("pipeline: packaging failed")

	// errCanceled signals a cancellation checkpoint fired; it is not a
	// failure and is never appended to the job's error list.
	errCanceled = errors.New("pipeline: canceled")
)
