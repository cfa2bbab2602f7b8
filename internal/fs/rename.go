package fs

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"
)

// wraps Rename and provides an atomic whole-file write on top of it.
// Persisted project files and JSON history are finalized this way so a crash
// never leaves a half-written file behind.

func rename(ctx context.Context, base afero.Fs, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return base.Rename(oldPath, newPath)
}

// WriteFile writes data to a temporary sibling and renames it over path.
func (a *AferoFS) WriteFile(path string, data []byte) error {
	if err := a.base.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := filepath.Join(filepath.Dir(path), ".tmp-"+filepath.Base(path))
	if err := afero.WriteFile(a.base, tmp, data, 0o644); err != nil {
		_ = a.base.Remove(tmp)
		return err
	}

	if err := a.base.Rename(tmp, path); err != nil {
		_ = a.base.Remove(tmp)
		return err
	}
	return nil
}
