// Package scanner walks a root folder and fingerprints everything beneath it.
package scanner

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/edutenorio/FolderTracker/internal/fs"
	"github.com/edutenorio/FolderTracker/internal/logging"
	"github.com/edutenorio/FolderTracker/internal/snapshot"
)

// ChunkSize is the read size used while hashing file content.
const ChunkSize = 8192

// Warning records one entry that could not be fingerprinted. The entry is
// left out of the scan result.
type Warning struct {
	Path string
	Err  error
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s: %v", w.Path, w.Err)
}

func (w Warning) Unwrap() error {
	return w.Err
}

type Scanner struct {
	fs     fs.FS
	log    logging.Logger
	ignore []string
}

type Option func(*Scanner)

func WithLogger(log logging.Logger) Option {
	return func(s *Scanner) { s.log = logging.OrNop(log) }
}

// WithIgnore excludes relative paths matching any of the doublestar
// patterns. A matching folder is not descended into.
func WithIgnore(patterns ...string) Option {
	return func(s *Scanner) { s.ignore = append(s.ignore, patterns...) }
}

func New(fsys fs.FS, opts ...Option) *Scanner {
	if fsys == nil {
		fsys = fs.New()
	}
	s := &Scanner{fs: fsys, log: logging.Nop}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidatePatterns reports the first malformed ignore pattern.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid ignore pattern %q", p)
		}
	}
	return nil
}

// Scan returns the state of every file and folder under root, root itself
// excluded. A missing root scans as empty.
func (s *Scanner) Scan(root string) (snapshot.FolderState, []Warning) {
	s.log.Debug("entering Scanner.Scan()", "root", root)
	state := make(snapshot.FolderState)
	var warnings []Warning

	info, err := s.fs.Stat(root)
	switch {
	case fs.IsNotExist(err):
		s.log.Debug("root does not exist, scanning as empty", "root", root)
		return state, nil
	case err != nil:
		return state, append(warnings, s.warn(".", err))
	case !info.IsDir:
		return state, append(warnings, s.warn(".", fs.ErrNotDir("scan", root)))
	}

	_ = s.fs.Walk(root, func(path string, fi os.FileInfo, err error) error {
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			warnings = append(warnings, s.warn(path, relErr))
			return nil
		}
		if rel == "." {
			if err != nil {
				warnings = append(warnings, s.warn(rel, err))
			}
			return nil
		}
		rel = snapshot.NormPath(rel)

		if s.ignored(rel) {
			if fi != nil && fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if err != nil {
			// Either lstat failed or the folder could not be listed. A listed
			// folder keeps the entry it already got.
			warnings = append(warnings, s.warn(rel, err))
			return nil
		}

		entry, err := s.Fingerprint(root, rel)
		if err != nil {
			warnings = append(warnings, s.warn(rel, err))
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		state[rel] = entry
		return nil
	})

	s.log.Debug("scan finished", "root", root, "entries", len(state), "warnings", len(warnings))
	return state, warnings
}

// Fingerprint computes the entry for a single path under root.
func (s *Scanner) Fingerprint(root, rel string) (snapshot.Entry, error) {
	full := filepath.Join(root, filepath.FromSlash(rel))
	info, err := s.fs.Stat(full)
	if err != nil {
		return snapshot.Entry{}, err
	}
	if info.IsDir {
		return snapshot.FromFileInfo(rel, info, ""), nil
	}

	sum, err := s.hash(full)
	if err != nil {
		return snapshot.Entry{}, err
	}
	return snapshot.FromFileInfo(rel, info, sum), nil
}

func (s *Scanner) hash(path string) (string, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, ChunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("hashing %s: %w", path, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (s *Scanner) ignored(rel string) bool {
	for _, p := range s.ignore {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func (s *Scanner) warn(rel string, err error) Warning {
	s.log.Warn("skipping entry", "path", rel, "error", err)
	return Warning{Path: rel, Err: err}
}
