package history

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/edutenorio/FolderTracker/internal/fs"
	"github.com/edutenorio/FolderTracker/internal/logging"
	"github.com/edutenorio/FolderTracker/internal/snapshot"
)

// Store persists a History. The engine only ever appends; Delete and Replace
// exist for explicit trimming and imports.
type Store interface {
	Load(ctx context.Context) (*History, error)
	Append(ctx context.Context, key string, state snapshot.FolderState) error
	Delete(ctx context.Context, key string) error
	Replace(ctx context.Context, h *History) error
	Close() error
}

type openOptions struct {
	fs  fs.FS
	log logging.Logger
}

type OpenOption func(*openOptions)

// WithFS sets the filesystem used by file-backed stores.
func WithFS(fsys fs.FS) OpenOption {
	return func(o *openOptions) { o.fs = fsys }
}

func WithLogger(log logging.Logger) OpenOption {
	return func(o *openOptions) { o.log = logging.OrNop(log) }
}

// Open picks a store by file extension: ".json" keeps the whole history in
// one JSON document, anything else is a SQLite database.
func Open(path string, opts ...OpenOption) (Store, error) {
	o := openOptions{log: logging.Nop}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fs == nil {
		o.fs = fs.New()
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return NewJSONStore(path, o.fs, o.log), nil
	}
	return OpenSQLite(path, o.log)
}
