package archive

import (
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

type CompressionFormat string

const (
	FormatTar  CompressionFormat = "tar"
	FormatGzip CompressionFormat = "gz"
	FormatZstd CompressionFormat = "zst"
)

func ParseFormat(s string) (CompressionFormat, bool) {
	switch CompressionFormat(s) {
	case FormatTar, FormatGzip, FormatZstd, "":
		if s == "" {
			return FormatGzip, true
		}
		return CompressionFormat(s), true
	default:
		return "", false
	}
}

func formatExtension(f CompressionFormat) string {
	switch f {
	case FormatGzip:
		return ".tar.gz"
	case FormatZstd:
		return ".tar.zst"
	default:
		return ".tar"
	}
}

// newCompressWriter wraps w in the configured compressor. The returned
// closer flushes the compressor only; it does not close w.
func newCompressWriter(w io.Writer, format CompressionFormat, level int) (io.WriteCloser, error) {
	switch format {
	case FormatTar:
		return nopWriteCloser{w}, nil
	case FormatGzip:
		if level < 1 {
			level = gzip.DefaultCompression
		}
		if level > 9 {
			level = 9
		}
		return gzip.NewWriterLevel(w, level)
	case FormatZstd:
		return zstd.NewWriter(w)
	default:
		return nil, fmt.Errorf("unknown compression format %q", format)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
