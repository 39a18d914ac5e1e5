// Package packaging builds the per-job SHA-256 hash manifest and the
// final deliverable zip archive. archive/zip and crypto/sha256 are used
// directly rather than through a third-party wrapper: the hash-manifest
// and zip format are specified against DEFLATE zip semantics and plain
// SHA-256 digests, which the standard library already expresses
// idiomatically (see DESIGN.md for the stdlib justification).
package packaging

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// ManifestEntry records one artifact's digest and size.
type ManifestEntry struct {
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// Manifest maps a relative artifact path to its ManifestEntry.
type Manifest map[string]ManifestEntry

// HashFile computes the hex-encoded SHA-256 digest and byte size of path.
func HashFile(path string) (ManifestEntry, error) {
	f, err := os.Open(path) // #nosec G304 - path is job-directory-scoped
	if err != nil {
		return ManifestEntry{}, fmt.Errorf("packaging: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return ManifestEntry{}, fmt.Errorf("packaging: hash %s: %w", path, err)
	}
	return ManifestEntry{SHA256: hex.EncodeToString(h.Sum(nil)), Size: size}, nil
}

// Target is one candidate manifest entry: a path relative to the job
// root and its absolute location on disk.
type Target struct {
	Rel string
	Abs string
}

// BuildManifest hashes every target that exists on disk, skipping ones
// that don't (per spec.md: "for each of the fixed relative paths ...
// that exists").
func BuildManifest(targets []Target) (Manifest, error) {
	m := make(Manifest)
	for _, t := range targets {
		if _, err := os.Stat(t.Abs); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("packaging: stat %s: %w", t.Abs, err)
		}
		entry, err := HashFile(t.Abs)
		if err != nil {
			return nil, err
		}
		m[t.Rel] = entry
	}
	return m, nil
}

// MarshalJSONPretty renders the manifest as pretty-printed JSON, the shape
// written to manifest.json.
func (m Manifest) MarshalJSONPretty() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("packaging: marshal manifest: %w", err)
	}
	return data, nil
}

// HashesSHA256Lines renders the manifest in the "<hex-sha256> *<relpath>"
// line format, sorted by relative path for determinism.
func (m Manifest) HashesSHA256Lines() string {
	rels := make([]string, 0, len(m))
	for rel := range m {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	out := ""
	for _, rel := range rels {
		out += fmt.Sprintf("%s *%s\n", m[rel].SHA256, rel)
	}
	return out
}

// ZipEntry pairs a source file on disk with its name inside the archive.
type ZipEntry struct {
	Abs        string
	ArchiveName string
}

// BuildZip writes a DEFLATE-compressed zip at destPath containing every
// entry in entries whose source file exists, skipping absent ones
// (produce_pdf/produce_json/produce_vtt are each optional).
func BuildZip(destPath string, entries []ZipEntry) error {
	f, err := os.Create(destPath) // #nosec G304 - destPath is job-directory-scoped
	if err != nil {
		return fmt.Errorf("packaging: create %s: %w", destPath, err)
	}
	defer func() { _ = f.Close() }()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		if _, err := os.Stat(e.Abs); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("packaging: stat %s: %w", e.Abs, err)
		}
		if err := addZipEntry(zw, e); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("packaging: close zip writer: %w", err)
	}
	return nil
}

func addZipEntry(zw *zip.Writer, e ZipEntry) error {
	src, err := os.Open(e.Abs) // #nosec G304 - e.Abs is job-directory-scoped
	if err != nil {
		return fmt.Errorf("packaging: open %s: %w", e.Abs, err)
	}
	defer func() { _ = src.Close() }()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("packaging: stat %s: %w", e.Abs, err)
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("packaging: build zip header for %s: %w", e.Abs, err)
	}
	header.Name = e.ArchiveName
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("packaging: create zip entry %s: %w", e.ArchiveName, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("packaging: write zip entry %s: %w", e.ArchiveName, err)
	}
	return nil
}
