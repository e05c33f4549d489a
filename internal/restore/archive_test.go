package restore

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTarGz(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)
	for name, content := range entries {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestArchive_ExtractsFiles(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "docs-20260101120000.tar.gz")
	writeTarGz(t, archivePath, map[string]string{
		"index.txt":      "hello",
		"sub/nested.txt": "deep",
	})

	target := t.TempDir()
	if err := Archive(context.Background(), archivePath, target, ArchiveOptions{}); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(target, "index.txt"))
	if err != nil || string(got) != "hello" {
		t.Errorf("index.txt = %q, %v; want hello", got, err)
	}
	got, err = os.ReadFile(filepath.Join(target, "sub", "nested.txt"))
	if err != nil || string(got) != "deep" {
		t.Errorf("sub/nested.txt = %q, %v; want deep", got, err)
	}
}

func TestArchive_DryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "docs.tar.gz")
	writeTarGz(t, archivePath, map[string]string{"a.txt": "x"})

	target := t.TempDir()
	if err := Archive(context.Background(), archivePath, target, ArchiveOptions{DryRun: true}); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	entries, err := os.ReadDir(target)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("dry run wrote %d entries", len(entries))
	}
}

func TestArchive_BlocksPathTraversal(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.tar.gz")
	writeTarGz(t, archivePath, map[string]string{
		"../escape.txt":    "out",
		"/abs/rooted.txt":  "abs",
		"ok/inside.txt":    "in",
		"nested/../../up":  "up",
	})

	target := t.TempDir()
	if err := Archive(context.Background(), archivePath, target, ArchiveOptions{}); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	if _, err := os.Stat(filepath.Join(filepath.Dir(target), "escape.txt")); !os.IsNotExist(err) {
		t.Error("traversal entry escaped the target directory")
	}
	if _, err := os.Stat(filepath.Join(target, "ok", "inside.txt")); err != nil {
		t.Errorf("legitimate entry missing: %v", err)
	}
	// Absolute names are re-rooted under the target.
	if _, err := os.Stat(filepath.Join(target, "abs", "rooted.txt")); err != nil {
		t.Errorf("absolute entry not re-rooted: %v", err)
	}
}

func TestCleanTarName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"a/b.txt", "a/b.txt"},
		{"./a.txt", "a.txt"},
		{"/etc/passwd", "etc/passwd"},
		{"../up.txt", ""},
		{"a/../../up.txt", ""},
		{"..", ""},
		{"", ""},
		{".", ""},
	}
	for _, tc := range cases {
		if got := cleanTarName(tc.in); got != tc.want {
			t.Errorf("cleanTarName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
