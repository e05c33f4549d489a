package objsync

import (
	"context"
	"io"
	"strings"

	s3client "backhaul/internal/s3"
)

// clientStorage adapts *s3.Client to the Storage interface. Listed keys are
// stripped back to client-relative form so Delete can round-trip them.
type clientStorage struct {
	client *s3client.Client
}

const multipartThreshold = 64 * 1024 * 1024

func (s clientStorage) Upload(ctx context.Context, key string, body io.Reader, size int64) error {
	if size >= multipartThreshold {
		return s.client.UploadMultipart(ctx, key, body, s3client.MinPartSizeBytes*4)
	}
	return s.client.PutObject(ctx, key, body, size)
}

func (s clientStorage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	infos, err := s.client.ListObjectInfos(ctx, prefix, 0)
	if err != nil {
		return nil, err
	}
	base := s.client.Prefix()
	out := make([]ObjectInfo, 0, len(infos))
	for _, info := range infos {
		key := info.Key
		if base != "" {
			key = strings.TrimPrefix(strings.TrimPrefix(key, base), "/")
		}
		out = append(out, ObjectInfo{
			Key:          key,
			SizeBytes:    info.SizeBytes,
			LastModified: info.LastModified,
		})
	}
	return out, nil
}

func (s clientStorage) Delete(ctx context.Context, key string) error {
	return s.client.DeleteObject(ctx, key)
}
