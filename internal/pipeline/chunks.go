package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sealium/transcription-service/internal/atomicfile"
	"github.com/sealium/transcription-service/internal/jobpaths"
	"github.com/sealium/transcription-service/internal/segmenter"
)

// loadChunksPlan reads chunks.json if present. A missing file is not an
// error: it returns (nil, false, nil) so the caller knows to compute one.
func loadChunksPlan(paths jobpaths.Paths) ([]segmenter.Entry, bool, error) {
	data, err := os.ReadFile(paths.ChunksPlan()) // #nosec G304 - path is job-directory-scoped
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("pipeline: read chunks plan: %w", err)
	}
	var plan []segmenter.Entry
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, false, fmt.Errorf("%w: parse chunks.json: %v", ErrSegmentationFailed, err)
	}
	return plan, true, nil
}

func writeChunksPlan(paths jobpaths.Paths, plan []segmenter.Entry) error {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("pipeline: marshal chunks plan: %w", err)
	}
	if err := atomicfile.WriteFile(paths.ChunksPlan(), data, 0o644); err != nil {
		return fmt.Errorf("pipeline: write chunks plan: %w", err)
	}
	return nil
}
