package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sealium/transcription-service/internal/atomicfile"
	"github.com/sealium/transcription-service/internal/jobpaths"
	"github.com/sealium/transcription-service/internal/merge"
)

// Partial is the per-chunk transcript record the transcriber writes and
// the merger reads back, the shape spec.md §3 names for partials/NNNN.json.
type Partial struct {
	ChunkIndex int             `json:"chunk_index"`
	ChunkStart float64         `json:"chunk_start"`
	ChunkEnd   float64         `json:"chunk_end"`
	Segments   []merge.Segment `json:"segments"`
	Text       string          `json:"text"`
}

func writePartial(path string, p Partial) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("pipeline: marshal partial: %w", err)
	}
	if err := atomicfile.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("pipeline: write partial %s: %w", path, err)
	}
	return nil
}

func readPartial(path string) (Partial, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is job-directory-scoped
	if err != nil {
		return Partial{}, fmt.Errorf("pipeline: read partial %s: %w", path, err)
	}
	var p Partial
	if err := json.Unmarshal(data, &p); err != nil {
		return Partial{}, fmt.Errorf("pipeline: parse partial %s: %w", path, err)
	}
	return p, nil
}

// readAllPartials reads every partials/*.json file, sorted by filename
// (i.e. by chunk index, since filenames are zero-padded), per spec.md
// §4.5 step 1: "Read every partials/*.json sorted by filename".
func readAllPartials(paths jobpaths.Paths) ([]Partial, error) {
	entries, err := os.ReadDir(paths.PartialsDir())
	if err != nil {
		return nil, fmt.Errorf("pipeline: list partials dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]Partial, 0, len(names))
	for _, name := range names {
		p, err := readPartial(filepath.Join(paths.PartialsDir(), name))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
