package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// implements metadata-preserving file copies.
// A stale destination is removed first so read-only or locked targets do not
// make the copy fail; permission bits and modification time follow the source.

const copyBufferSize = 32 * 1024

func copyFile(ctx context.Context, base afero.Fs, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	st, err := base.Stat(src)
	if err != nil {
		return err
	}
	if st.IsDir() {
		return &os.PathError{Op: "copy", Path: src, Err: errIsDir}
	}

	if err := base.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	// Lstat so a dangling link at dst is replaced, not written through.
	if _, err := lstatIfPossible(base, dst); err == nil {
		if err := base.Remove(dst); err != nil {
			return fmt.Errorf("removing stale destination: %w", err)
		}
	}

	if err := copyOnce(base, src, dst); err != nil {
		_ = base.Remove(dst)
		return err
	}

	if err := base.Chmod(dst, st.Mode().Perm()); err != nil {
		return err
	}
	return base.Chtimes(dst, st.ModTime(), st.ModTime())
}

func copyOnce(base afero.Fs, src, dst string) error {
	in, err := base.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := base.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	if _, err := io.CopyBuffer(out, in, make([]byte, copyBufferSize)); err != nil {
		return err
	}

	return out.Sync()
}

func lstatIfPossible(base afero.Fs, path string) (os.FileInfo, error) {
	if l, ok := base.(afero.Lstater); ok {
		st, _, err := l.LstatIfPossible(path)
		return st, err
	}
	return base.Stat(path)
}
