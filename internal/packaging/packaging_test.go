package packaging

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestBuildManifest_SkipsMissingHashesPresent(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "final.txt")
	if err := os.WriteFile(present, []byte("hello world"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	missing := filepath.Join(dir, "transcript.pdf")

	targets := []Target{
		{Rel: "merged/final.txt", Abs: present},
		{Rel: "output/transcript.pdf", Abs: missing},
	}

	m, err := BuildManifest(targets)
	if err != nil {
		t.Fatalf("BuildManifest: %v", err)
	}
	if len(m) != 1 {
		t.Fatalf("expected 1 manifest entry, got %d: %v", len(m), m)
	}
	entry, ok := m["merged/final.txt"]
	if !ok {
		t.Fatal("missing expected entry")
	}
	want := sha256.Sum256([]byte("hello world"))
	if entry.SHA256 != hex.EncodeToString(want[:]) {
		t.Errorf("SHA256 = %s, want %s", entry.SHA256, hex.EncodeToString(want[:]))
	}
	if entry.Size != int64(len("hello world")) {
		t.Errorf("Size = %d, want %d", entry.Size, len("hello world"))
	}
}

func TestHashesSHA256Lines_SortedAndFormatted(t *testing.T) {
	m := Manifest{
		"b.txt": {SHA256: "bbb", Size: 2},
		"a.txt": {SHA256: "aaa", Size: 1},
	}
	got := m.HashesSHA256Lines()
	want := "aaa *a.txt\nbbb *b.txt\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildZip_ManifestHashAndSizeMatchZipContents(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "final.txt")
	content := []byte("the quick brown fox")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	manifest, err := BuildManifest([]Target{{Rel: "transcript.txt", Abs: src}})
	if err != nil {
		t.Fatalf("BuildManifest: %v", err)
	}

	zipPath := filepath.Join(dir, "out.zip")
	if err := BuildZip(zipPath, []ZipEntry{{Abs: src, ArchiveName: "transcript.txt"}}); err != nil {
		t.Fatalf("BuildZip: %v", err)
	}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer func() { _ = r.Close() }()

	if len(r.File) != 1 {
		t.Fatalf("expected 1 zip entry, got %d", len(r.File))
	}
	zf := r.File[0]
	if zf.Name != "transcript.txt" {
		t.Errorf("archive name = %q, want transcript.txt", zf.Name)
	}
	if zf.Method != zip.Deflate {
		t.Errorf("method = %v, want Deflate", zf.Method)
	}

	rc, err := zf.Open()
	if err != nil {
		t.Fatalf("open zip entry: %v", err)
	}
	defer func() { _ = rc.Close() }()

	h := sha256.New()
	size, err := io.Copy(h, rc)
	if err != nil {
		t.Fatalf("hash zip contents: %v", err)
	}
	gotHash := hex.EncodeToString(h.Sum(nil))

	entry := manifest["transcript.txt"]
	if gotHash != entry.SHA256 {
		t.Errorf("zip content hash = %s, want manifest hash %s", gotHash, entry.SHA256)
	}
	if size != entry.Size {
		t.Errorf("zip content size = %d, want manifest size %d", size, entry.Size)
	}
}

func TestBuildZip_SkipsMissingEntries(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "out.zip")
	if err := BuildZip(zipPath, []ZipEntry{{Abs: filepath.Join(dir, "absent.pdf"), ArchiveName: "transcript.pdf"}}); err != nil {
		t.Fatalf("BuildZip: %v", err)
	}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer func() { _ = r.Close() }()
	if len(r.File) != 0 {
		t.Errorf("expected empty zip, got %d entries", len(r.File))
	}
}
