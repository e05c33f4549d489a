package objsync

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"backhaul/internal/backend"
	"backhaul/internal/exclude"
	s3client "backhaul/internal/s3"
)

// Storage is the subset of object-store operations this backend needs.
// *s3.Client implements it through the glue in client.go; tests use a
// map-backed fake.
type Storage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

type ObjectInfo struct {
	Key          string
	SizeBytes    int64
	LastModified time.Time
}

// Adapter mirrors a local tree to an object store under the job's
// destination prefix. Artifacts are the remote objects themselves: every
// live local file is re-uploaded each run, which refreshes its remote
// timestamp, so age-based retention only ever removes objects whose local
// counterpart is gone. Remote timestamps are store-reported and may lag
// the local clock; that skew is tolerated, never treated as an error.
type Adapter struct {
	store Storage
	now   func() time.Time
}

func New(client *s3client.Client) *Adapter {
	return NewWithStorage(clientStorage{client})
}

func NewWithStorage(store Storage) *Adapter {
	return &Adapter{store: store, now: time.Now}
}

func (a *Adapter) Kind() backend.Kind      { return backend.KindSync }
func (a *Adapter) RequiredTools() []string { return nil }

func (a *Adapter) Produce(ctx context.Context, job backend.Job) (backend.Artifact, error) {
	matcher, err := exclude.NewMatcher(job.Exclusions)
	if err != nil {
		return backend.Artifact{}, fmt.Errorf("compile exclusions: %w", err)
	}

	prefix := s3client.SyncPrefixForJob(job.Destination)
	root, err := filepath.Abs(filepath.Clean(job.Source))
	if err != nil {
		return backend.Artifact{}, err
	}

	var total int64
	var count int
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		relSlash := filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		// Exclusions match the slash-relative path, the same form used as
		// the object key suffix.
		if matcher.IsExcluded(relSlash) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		n, upErr := a.uploadFile(ctx, path.Join(prefix, relSlash), p, info.Size())
		if upErr != nil {
			return fmt.Errorf("upload %s: %w", relSlash, upErr)
		}
		total += n
		count++
		return nil
	})
	if err != nil {
		return backend.Artifact{}, err
	}

	at := a.now().UTC()
	return backend.Artifact{
		ID:        fmt.Sprintf("%s@%s", job.Destination, at.Format("20060102150405")),
		CreatedAt: at,
		SizeBytes: total,
		Tag:       job.Tag,
	}, nil
}

func (a *Adapter) uploadFile(ctx context.Context, key, localPath string, size int64) (int64, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	if err := a.store.Upload(ctx, key, f, size); err != nil {
		return 0, err
	}
	return size, nil
}

func (a *Adapter) ListArtifacts(ctx context.Context, job backend.Job) ([]backend.Artifact, error) {
	prefix := s3client.SyncPrefixForJob(job.Destination)
	infos, err := a.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	out := make([]backend.Artifact, 0, len(infos))
	for _, info := range infos {
		out = append(out, backend.Artifact{
			ID:        info.Key,
			CreatedAt: info.LastModified,
			SizeBytes: info.SizeBytes,
			Tag:       job.Tag,
		})
	}
	return out, nil
}

func (a *Adapter) Delete(ctx context.Context, job backend.Job, art backend.Artifact) error {
	// Object stores report success for deletes of absent keys, which is
	// exactly the idempotence we want.
	return a.store.Delete(ctx, art.ID)
}

var _ backend.Adapter = (*Adapter)(nil)
