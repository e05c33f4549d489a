package archive

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"backhaul/internal/backend"
	"backhaul/internal/exclude"
)

const timestampLayout = "20060102150405"

// Adapter streams one compressed tar archive per run into a destination
// directory. Exclusion patterns are applied against the slash-separated
// path of each entry relative to the source root, exactly as it appears
// inside the archive. Artifact age is derived from file modification time.
type Adapter struct {
	format CompressionFormat
	level  int
	now    func() time.Time
}

func New(format CompressionFormat, level int) *Adapter {
	return &Adapter{format: format, level: level, now: time.Now}
}

func (a *Adapter) Kind() backend.Kind      { return backend.KindArchive }
func (a *Adapter) RequiredTools() []string { return nil }

func (a *Adapter) Produce(ctx context.Context, job backend.Job) (backend.Artifact, error) {
	matcher, err := exclude.NewMatcher(job.Exclusions)
	if err != nil {
		return backend.Artifact{}, fmt.Errorf("compile exclusions: %w", err)
	}

	if err := os.MkdirAll(job.Destination, 0o755); err != nil {
		return backend.Artifact{}, fmt.Errorf("create destination: %w", err)
	}

	at := a.now().UTC()
	filename := ArtifactName(job.Name, job.Tag, at, a.format)

	tmp, err := os.CreateTemp(job.Destination, "."+filename+".partial-*")
	if err != nil {
		return backend.Artifact{}, fmt.Errorf("create temp archive: %w", err)
	}
	tmpPath := tmp.Name()

	hasher := blake3.New()
	wrote, err := writeArchive(ctx, io.MultiWriter(tmp, hasher), job.Source, matcher, a.format, a.level)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return backend.Artifact{}, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return backend.Artifact{}, fmt.Errorf("sync archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return backend.Artifact{}, fmt.Errorf("close archive: %w", err)
	}

	finalPath := filepath.Join(job.Destination, filename)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return backend.Artifact{}, fmt.Errorf("finalize archive: %w", err)
	}

	sum := hex.EncodeToString(hasher.Sum(nil))
	if err := os.WriteFile(finalPath+checksumSuffix, []byte(sum+"\n"), 0o644); err != nil {
		return backend.Artifact{}, fmt.Errorf("write checksum: %w", err)
	}

	return backend.Artifact{
		ID:        filename,
		CreatedAt: at,
		SizeBytes: wrote,
		Tag:       job.Tag,
	}, nil
}

func (a *Adapter) ListArtifacts(ctx context.Context, job backend.Job) ([]backend.Artifact, error) {
	entries, err := os.ReadDir(job.Destination)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list destination: %w", err)
	}

	var out []backend.Artifact
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		tag, ok := parseArtifactName(e.Name(), job.Name)
		if !ok {
			continue
		}
		if job.Tag != "" && tag != job.Tag {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, backend.Artifact{
			ID:        e.Name(),
			CreatedAt: info.ModTime(),
			SizeBytes: info.Size(),
			Tag:       tag,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (a *Adapter) Delete(ctx context.Context, job backend.Job, art backend.Artifact) error {
	// Refuse anything that is not a plain filename produced by this job.
	if filepath.Base(art.ID) != art.ID {
		return fmt.Errorf("invalid artifact id %q", art.ID)
	}
	p := filepath.Join(job.Destination, art.ID)
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Remove(p + checksumSuffix); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

const checksumSuffix = ".b3"

// ArtifactName builds the timestamp-named archive filename:
// <job>-<tag>-<timestamp><ext> or <job>-<timestamp><ext> without a tag.
func ArtifactName(job, tag string, at time.Time, format CompressionFormat) string {
	ts := at.UTC().Format(timestampLayout)
	if tag != "" {
		return fmt.Sprintf("%s-%s-%s%s", job, tag, ts, formatExtension(format))
	}
	return fmt.Sprintf("%s-%s%s", job, ts, formatExtension(format))
}

// parseArtifactName reports whether name follows this job's naming
// convention, returning the embedded tag if any.
func parseArtifactName(name, job string) (tag string, ok bool) {
	rest, found := strings.CutPrefix(name, job+"-")
	if !found {
		return "", false
	}
	ext, found := knownExtension(rest)
	if !found {
		return "", false
	}
	rest = strings.TrimSuffix(rest, ext)
	if len(rest) == len(timestampLayout) {
		return "", validTimestamp(rest)
	}
	// tag-<timestamp>
	i := strings.LastIndex(rest, "-")
	if i <= 0 {
		return "", false
	}
	tag, ts := rest[:i], rest[i+1:]
	if !validTimestamp(ts) {
		return "", false
	}
	return tag, true
}

func validTimestamp(s string) bool {
	if len(s) != len(timestampLayout) {
		return false
	}
	_, err := time.Parse(timestampLayout, s)
	return err == nil
}

func knownExtension(name string) (string, bool) {
	for _, ext := range []string{".tar.gz", ".tar.zst", ".tar"} {
		if strings.HasSuffix(name, ext) {
			return ext, true
		}
	}
	return "", false
}

var _ backend.Adapter = (*Adapter)(nil)
