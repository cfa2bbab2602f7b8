// Package fs defines the filesystem abstraction used by the sync engine.
// It provides the FS interface and the FileInfo type shared across the system,
// backed by afero so the same code runs against the OS or an in-memory tree.
package fs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"
)

type FileInfo struct {
	Path  string
	Size  int64
	MTime time.Time
	CTime time.Time
	Mode  os.FileMode
	IsDir bool
	// IsLink is set when the object is a symbolic link; the other fields
	// then describe the link target.
	IsLink bool
}

type FS interface {
	Stat(path string) (FileInfo, error)
	Open(path string) (io.ReadCloser, error)
	Walk(root string, fn filepath.WalkFunc) error
	CopyFile(ctx context.Context, src, dst string) error
	Rename(ctx context.Context, oldPath, newPath string) error
	WriteFile(path string, data []byte) error
	ReadFile(path string) ([]byte, error)
	MkdirAll(path string) error
	Remove(path string) error
	RemoveAll(path string) error
}
