// Package jobpaths centralizes the on-disk layout of a job directory so
// every stage worker agrees on where artifacts live. The job directory is
// the exclusive owner of all intermediate and final artifacts; nothing in
// the core ever reaches outside it except to read a source path/URL.
package jobpaths

import (
	"fmt"
	"path/filepath"
)

// Paths resolves every well-known file and directory under jobs/<id>/.
type Paths struct {
	root string
	id   string
}

// New returns a Paths rooted at filepath.Join(storageRoot, "jobs", id).
func New(storageRoot, id string) Paths {
	return Paths{root: filepath.Join(storageRoot, "jobs", id), id: id}
}

// JobID returns the job id this Paths was built for.
func (p Paths) JobID() string { return p.id }

// Root returns the job's top-level directory.
func (p Paths) Root() string { return p.root }

func (p Paths) InputDir() string   { return filepath.Join(p.root, "input") }
func (p Paths) ChunksDir() string  { return filepath.Join(p.root, "chunks") }
func (p Paths) PartialsDir() string { return filepath.Join(p.root, "partials") }
func (p Paths) MergedDir() string  { return filepath.Join(p.root, "merged") }
func (p Paths) OutputDir() string  { return filepath.Join(p.root, "output") }
func (p Paths) LogsDir() string    { return filepath.Join(p.root, "logs") }

func (p Paths) OriginalMedia() string { return filepath.Join(p.InputDir(), "original.mp4") }
func (p Paths) AudioWAV() string      { return filepath.Join(p.InputDir(), "audio.wav") }

// ChunkWAV returns the path for a 1-based chunk index, e.g. chunks/0001.wav.
func (p Paths) ChunkWAV(index int) string {
	return filepath.Join(p.ChunksDir(), fmt.Sprintf("%04d.wav", index))
}

// PartialJSON returns the path for a 1-based chunk index's partial transcript.
func (p Paths) PartialJSON(index int) string {
	return filepath.Join(p.PartialsDir(), fmt.Sprintf("%04d.json", index))
}

func (p Paths) FinalTXT() string  { return filepath.Join(p.MergedDir(), "final.txt") }
func (p Paths) FinalJSON() string { return filepath.Join(p.MergedDir(), "final.json") }
func (p Paths) FinalVTT() string  { return filepath.Join(p.MergedDir(), "final.vtt") }

func (p Paths) TranscriptPDF() string { return filepath.Join(p.OutputDir(), "transcript.pdf") }

// Zip returns the deliverable zip's path for this job.
func (p Paths) Zip() string {
	return filepath.Join(p.OutputDir(), fmt.Sprintf("sealium_transcription_%s.zip", p.id))
}

// ZipDownloadName returns the suggested filename for Zip(), independent of
// the on-disk path.
func (p Paths) ZipDownloadName() string {
	return fmt.Sprintf("sealium_transcription_%s.zip", p.id)
}

func (p Paths) JobLog() string      { return filepath.Join(p.LogsDir(), "job.log") }
func (p Paths) ChunksPlan() string  { return filepath.Join(p.root, "chunks.json") }
func (p Paths) StateFile() string   { return filepath.Join(p.root, "job_state.json") }
func (p Paths) ManifestFile() string { return filepath.Join(p.root, "manifest.json") }
func (p Paths) HashesFile() string   { return filepath.Join(p.root, "hashes.sha256") }

// AllDirs lists every directory that must exist before a job can be
// processed.
func (p Paths) AllDirs() []string {
	return []string{
		p.InputDir(), p.ChunksDir(), p.PartialsDir(),
		p.MergedDir(), p.OutputDir(), p.LogsDir(),
	}
}

// ManifestTargets lists the fixed relative paths (relative to Root()) that
// the packager checks for existence when building manifest.json. This is
// deliberately restricted to the artifacts the packager also places in the
// deliverable zip (runPackager's zip entries) so every manifest entry has
// a corresponding member inside the zip per spec §8's round-trip property;
// audio.wav and chunks.json are working files the packager never zips, so
// they are not manifest candidates either, matching the original
// packager's manifest writer.
func (p Paths) ManifestTargets() []struct{ Rel, Abs string } {
	return []struct{ Rel, Abs string }{
		{"input/original.mp4", p.OriginalMedia()},
		{"output/transcript.pdf", p.TranscriptPDF()},
		{"merged/final.json", p.FinalJSON()},
		{"merged/final.vtt", p.FinalVTT()},
		{"merged/final.txt", p.FinalTXT()},
	}
}
