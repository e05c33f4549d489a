package archive

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"backhaul/internal/exclude"
)

// writeArchive tars the source tree into w through the configured
// compressor and returns the number of compressed bytes written. Excluded
// entries are skipped; excluded directories are not descended into.
func writeArchive(ctx context.Context, w io.Writer, source string, matcher *exclude.Matcher, format CompressionFormat, level int) (int64, error) {
	cw := &countingWriter{w: w}
	zw, err := newCompressWriter(cw, format, level)
	if err != nil {
		return 0, err
	}
	tw := tar.NewWriter(zw)

	absRoot, err := filepath.Abs(filepath.Clean(source))
	if err != nil {
		return 0, err
	}
	if err := walk(ctx, tw, absRoot, absRoot, matcher); err != nil {
		return cw.n, err
	}

	if err := tw.Close(); err != nil {
		return cw.n, fmt.Errorf("close tar: %w", err)
	}
	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("close compressor: %w", err)
	}
	return cw.n, nil
}

func walk(ctx context.Context, tw *tar.Writer, root, dir string, matcher *exclude.Matcher) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		full := filepath.Join(dir, e.Name())
		rel, err := filepath.Rel(root, full)
		if err != nil {
			return err
		}
		tarName := filepath.ToSlash(rel)
		if strings.HasPrefix(tarName, "..") {
			continue
		}
		if matcher.IsExcluded(tarName) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			return err
		}
		mode := info.Mode()

		if mode&os.ModeSymlink != 0 {
			link, err := os.Readlink(full)
			if err != nil {
				return err
			}
			hdr, err := tar.FileInfoHeader(info, link)
			if err != nil {
				return err
			}
			hdr.Name = tarName
			if err := tw.WriteHeader(hdr); err != nil {
				return err
			}
			continue
		}

		if info.IsDir() {
			hdr, err := tar.FileInfoHeader(info, "")
			if err != nil {
				return err
			}
			hdr.Name = tarName + "/"
			if err := tw.WriteHeader(hdr); err != nil {
				return err
			}
			if err := walk(ctx, tw, root, full, matcher); err != nil {
				return err
			}
			continue
		}

		if !mode.IsRegular() {
			continue
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = tarName
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		f, err := os.Open(full)
		if err != nil {
			return err
		}
		_, err = io.Copy(tw, f)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
