package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// AferoFS is the concrete FS implementation. Platform-specific details (such
// as creation/change time extraction) are handled in build-tagged files.
type AferoFS struct {
	base afero.Fs
}

// New returns an FS backed by the local OS filesystem.
func New() *AferoFS {
	return &AferoFS{base: afero.NewOsFs()}
}

// NewMem returns an FS backed by an in-memory tree.
func NewMem() *AferoFS {
	return &AferoFS{base: afero.NewMemMapFs()}
}

// Wrap adapts any afero filesystem.
func Wrap(base afero.Fs) *AferoFS {
	return &AferoFS{base: base}
}

// Afero exposes the underlying filesystem, mostly for tests.
func (a *AferoFS) Afero() afero.Fs {
	return a.base
}

func (a *AferoFS) Stat(path string) (FileInfo, error) {
	st, err := a.lstat(path)
	if err != nil {
		return FileInfo{}, err
	}

	link := st.Mode()&os.ModeSymlink != 0
	if link {
		if st, err = a.base.Stat(path); err != nil {
			return FileInfo{}, err
		}
	}

	return fromOS(path, st, link), nil
}

func (a *AferoFS) lstat(path string) (os.FileInfo, error) {
	return lstatIfPossible(a.base, path)
}

func fromOS(path string, st os.FileInfo, link bool) FileInfo {
	return FileInfo{
		Path:   path,
		Size:   st.Size(),
		MTime:  st.ModTime(),
		CTime:  ctimeOf(st),
		Mode:   st.Mode(),
		IsDir:  st.IsDir(),
		IsLink: link,
	}
}

func (a *AferoFS) Open(path string) (io.ReadCloser, error) {
	return a.base.Open(path)
}

// Walk visits root and everything beneath it in lexical order without
// following symbolic links below root. A root that is itself a link is
// resolved first; paths handed to fn stay under root.
func (a *AferoFS) Walk(root string, fn filepath.WalkFunc) error {
	target, err := a.resolve(root)
	if err != nil || target == root {
		return afero.Walk(a.base, root, fn)
	}
	return afero.Walk(a.base, target, func(path string, info os.FileInfo, err error) error {
		rel, relErr := filepath.Rel(target, path)
		if relErr != nil {
			return fn(path, info, err)
		}
		return fn(filepath.Join(root, rel), info, err)
	})
}

const maxLinkHops = 40

// resolve follows path while it names a symbolic link.
func (a *AferoFS) resolve(path string) (string, error) {
	reader, ok := a.base.(afero.LinkReader)
	if !ok {
		return path, nil
	}
	for range maxLinkHops {
		st, err := a.lstat(path)
		if err != nil {
			return path, err
		}
		if st.Mode()&os.ModeSymlink == 0 {
			return path, nil
		}
		target, err := reader.ReadlinkIfPossible(path)
		if err != nil {
			return path, err
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), target)
		}
		path = target
	}
	return path, fmt.Errorf("resolving %s: too many links", path)
}

func (a *AferoFS) MkdirAll(path string) error {
	return a.base.MkdirAll(path, 0o755)
}

func (a *AferoFS) Remove(path string) error {
	return a.base.Remove(path)
}

func (a *AferoFS) RemoveAll(path string) error {
	return a.base.RemoveAll(path)
}

func (a *AferoFS) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(a.base, path)
}

func (a *AferoFS) CopyFile(ctx context.Context, src, dst string) error {
	return copyFile(ctx, a.base, src, dst)
}

func (a *AferoFS) Rename(ctx context.Context, oldPath, newPath string) error {
	return rename(ctx, a.base, oldPath, newPath)
}
