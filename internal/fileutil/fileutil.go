package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyFile copies src to dst atomically: the data is written to a hidden
// sibling of dst, synced, and renamed over dst.
func CopyFile(src, dst string) error {
	return copyAtomic(src, dst, nil)
}

// CopyFileVerified copies src to dst like CopyFile and additionally checks,
// before the rename, that the synced temp file matches the source in size
// and SHA-256. On mismatch the temp file is removed and dst is left untouched.
func CopyFileVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	srcHasher := sha256.New()
	return copyAtomic(src, dst, func(in io.Reader, tmpPath string, written int64) error {
		if written != srcInfo.Size() {
			return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
		}
		if _, err := io.Copy(srcHasher, in); err != nil {
			return fmt.Errorf("hash source: %w", err)
		}
		got, err := hashFile(tmpPath)
		if err != nil {
			return fmt.Errorf("hash copy: %w", err)
		}
		if !bytes.Equal(srcHasher.Sum(nil), got) {
			return fmt.Errorf("copy hash mismatch: file corrupted during copy")
		}
		return nil
	})
}

// verifier inspects the synced temp copy before it replaces dst. in is a
// fresh reader over the source.
type verifier func(in io.Reader, tmpPath string, written int64) error

// writeTemp is swapped in tests to simulate a short or corrupted write.
var writeTemp = func(dst io.Writer, src io.Reader) (int64, error) {
	return io.Copy(dst, src)
}

func copyAtomic(src, dst string, verify verifier) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	written, err := writeTemp(tmp, in)
	if err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if verify != nil {
		if _, err := in.Seek(0, io.SeekStart); err != nil {
			_ = os.Remove(tmpPath)
			return fmt.Errorf("rewind source: %w", err)
		}
		if err := verify(in, tmpPath, written); err != nil {
			_ = os.Remove(tmpPath)
			return err
		}
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func hashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
