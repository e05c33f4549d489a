package archive

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"backhaul/internal/backend"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readTarGz(t *testing.T, path string) map[string]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}
	tr := tar.NewReader(gr)
	entries := make(map[string]string)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("tar: %v", err)
		}
		var content []byte
		if hdr.Typeflag == tar.TypeReg {
			content, err = io.ReadAll(tr)
			if err != nil {
				t.Fatalf("read entry %s: %v", hdr.Name, err)
			}
		}
		entries[hdr.Name] = string(content)
	}
	return entries
}

func TestProduce_ArchivesSourceTree(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "keep.txt"), "hello")
	writeFile(t, filepath.Join(src, "skip.log"), "noise")
	writeFile(t, filepath.Join(src, "sub", "nested.txt"), "deep")

	a := New(FormatGzip, 6)
	job := backend.Job{
		Name:        "docs",
		Kind:        backend.KindArchive,
		Source:      src,
		Destination: dst,
		Exclusions:  []string{"*.log"},
	}

	art, err := a.Produce(context.Background(), job)
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if art.SizeBytes <= 0 {
		t.Errorf("SizeBytes = %d, want > 0", art.SizeBytes)
	}

	entries := readTarGz(t, filepath.Join(dst, art.ID))
	if entries["keep.txt"] != "hello" {
		t.Errorf("keep.txt content = %q, want hello", entries["keep.txt"])
	}
	if entries["sub/nested.txt"] != "deep" {
		t.Errorf("sub/nested.txt content = %q, want deep", entries["sub/nested.txt"])
	}
	if _, ok := entries["skip.log"]; ok {
		t.Error("skip.log matched an exclusion and must not be archived")
	}

	// Checksum sidecar sits next to the archive.
	sum, err := os.ReadFile(filepath.Join(dst, art.ID+checksumSuffix))
	if err != nil {
		t.Fatalf("checksum sidecar: %v", err)
	}
	if len(sum) != 65 { // 32-byte hex digest plus newline
		t.Errorf("checksum length = %d, want 65", len(sum))
	}
}

func TestProduce_NoPartialFilesLeftOnSuccess(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "x")

	a := New(FormatGzip, 6)
	_, err := a.Produce(context.Background(), backend.Job{
		Name: "j", Source: src, Destination: dst,
	})
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}

	entries, err := os.ReadDir(dst)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name()[0] == '.' {
			t.Errorf("partial file left behind: %s", e.Name())
		}
	}
}

func TestProduce_CancelledContext(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := New(FormatGzip, 6)
	_, err := a.Produce(ctx, backend.Job{Name: "j", Source: src, Destination: dst})
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestListArtifacts(t *testing.T) {
	dst := t.TempDir()
	old := filepath.Join(dst, "docs-20260101120000.tar.gz")
	recent := filepath.Join(dst, "docs-20260301120000.tar.gz")
	writeFile(t, old, "old")
	writeFile(t, recent, "recent")
	writeFile(t, filepath.Join(dst, "unrelated.txt"), "no")
	writeFile(t, filepath.Join(dst, "other-20260101120000.tar.gz"), "different job")

	oldTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	recentTime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(old, oldTime, oldTime); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(recent, recentTime, recentTime); err != nil {
		t.Fatal(err)
	}

	a := New(FormatGzip, 6)
	artifacts, err := a.ListArtifacts(context.Background(), backend.Job{Name: "docs", Destination: dst})
	if err != nil {
		t.Fatalf("ListArtifacts: %v", err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("listed %d artifacts, want 2: %+v", len(artifacts), artifacts)
	}
	// Sorted oldest first; age comes from mtime.
	if artifacts[0].ID != "docs-20260101120000.tar.gz" {
		t.Errorf("first artifact = %s, want the older one", artifacts[0].ID)
	}
	if !artifacts[0].CreatedAt.Equal(oldTime) {
		t.Errorf("CreatedAt = %v, want mtime %v", artifacts[0].CreatedAt, oldTime)
	}
}

func TestListArtifacts_TagFilter(t *testing.T) {
	dst := t.TempDir()
	writeFile(t, filepath.Join(dst, "docs-daily-20260101120000.tar.gz"), "d")
	writeFile(t, filepath.Join(dst, "docs-weekly-20260102120000.tar.gz"), "w")
	writeFile(t, filepath.Join(dst, "docs-20260103120000.tar.gz"), "untagged")

	a := New(FormatGzip, 6)
	artifacts, err := a.ListArtifacts(context.Background(), backend.Job{Name: "docs", Destination: dst, Tag: "daily"})
	if err != nil {
		t.Fatalf("ListArtifacts: %v", err)
	}
	if len(artifacts) != 1 || artifacts[0].Tag != "daily" {
		t.Fatalf("listed %+v, want only the daily artifact", artifacts)
	}
}

func TestListArtifacts_MissingDestination(t *testing.T) {
	a := New(FormatGzip, 6)
	artifacts, err := a.ListArtifacts(context.Background(), backend.Job{Name: "docs", Destination: "/does/not/exist"})
	if err != nil {
		t.Fatalf("ListArtifacts: %v", err)
	}
	if len(artifacts) != 0 {
		t.Fatalf("listed %d artifacts from a missing dir, want 0", len(artifacts))
	}
}

func TestDelete_Idempotent(t *testing.T) {
	dst := t.TempDir()
	name := "docs-20260101120000.tar.gz"
	writeFile(t, filepath.Join(dst, name), "x")
	writeFile(t, filepath.Join(dst, name+checksumSuffix), "sum")

	a := New(FormatGzip, 6)
	job := backend.Job{Name: "docs", Destination: dst}
	art := backend.Artifact{ID: name}

	if err := a.Delete(context.Background(), job, art); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, name)); !os.IsNotExist(err) {
		t.Error("archive still present after delete")
	}
	if _, err := os.Stat(filepath.Join(dst, name+checksumSuffix)); !os.IsNotExist(err) {
		t.Error("checksum sidecar still present after delete")
	}
	// Deleting an absent artifact succeeds.
	if err := a.Delete(context.Background(), job, art); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestDelete_RejectsPathTraversal(t *testing.T) {
	a := New(FormatGzip, 6)
	err := a.Delete(context.Background(), backend.Job{Destination: t.TempDir()}, backend.Artifact{ID: "../../etc/passwd"})
	if err == nil {
		t.Fatal("expected traversal artifact id to be rejected")
	}
}

func TestArtifactNameRoundTrip(t *testing.T) {
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	cases := []struct {
		job, tag string
		format   CompressionFormat
		want     string
	}{
		{"docs", "", FormatGzip, "docs-20260203040506.tar.gz"},
		{"docs", "daily", FormatGzip, "docs-daily-20260203040506.tar.gz"},
		{"docs", "", FormatZstd, "docs-20260203040506.tar.zst"},
		{"docs", "", FormatTar, "docs-20260203040506.tar"},
	}
	for _, tc := range cases {
		name := ArtifactName(tc.job, tc.tag, at, tc.format)
		if name != tc.want {
			t.Errorf("ArtifactName = %s, want %s", name, tc.want)
		}
		tag, ok := parseArtifactName(name, tc.job)
		if !ok {
			t.Errorf("parseArtifactName(%s) failed to round-trip", name)
		}
		if tag != tc.tag {
			t.Errorf("parseArtifactName(%s) tag = %q, want %q", name, tag, tc.tag)
		}
	}
}

func TestParseArtifactName_Rejects(t *testing.T) {
	bad := []string{
		"docs.tar.gz",
		"docs-.tar.gz",
		"docs-notatimestamp.tar.gz",
		"docs-20260101120000.zip",
		"other-20260101120000.tar.gz",
	}
	for _, name := range bad {
		if _, ok := parseArtifactName(name, "docs"); ok {
			t.Errorf("parseArtifactName(%q) = ok, want rejection", name)
		}
	}
}
