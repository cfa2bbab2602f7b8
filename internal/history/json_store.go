package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/edutenorio/FolderTracker/internal/fs"
	"github.com/edutenorio/FolderTracker/internal/logging"
	"github.com/edutenorio/FolderTracker/internal/snapshot"
)

// JSONStore keeps the history as a single JSON document, rewritten atomically
// on every change.
type JSONStore struct {
	mu   sync.Mutex
	path string
	fs   fs.FS
	log  logging.Logger
	h    *History
}

func NewJSONStore(path string, fsys fs.FS, log logging.Logger) *JSONStore {
	return &JSONStore{path: path, fs: fsys, log: logging.OrNop(log)}
}

// Load reads the document. A missing file is an empty history.
func (s *JSONStore) Load(ctx context.Context) (*History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.load()
	if err != nil {
		return nil, err
	}
	return h.Clone(), nil
}

func (s *JSONStore) load() (*History, error) {
	if s.h != nil {
		return s.h, nil
	}

	data, err := s.fs.ReadFile(s.path)
	switch {
	case fs.IsNotExist(err):
		s.log.Debug("history file not found, starting empty", "path", s.path)
		s.h = New()
		return s.h, nil
	case err != nil:
		return nil, fmt.Errorf("reading history: %w", err)
	}

	h := New()
	if len(data) > 0 {
		if err := json.Unmarshal(data, h); err != nil {
			return nil, fmt.Errorf("decoding history %s: %w", s.path, err)
		}
	}
	s.h = h
	return h, nil
}

func (s *JSONStore) Append(ctx context.Context, key string, state snapshot.FolderState) error {
	return s.update(func(h *History) error {
		return h.Put(key, state)
	})
}

func (s *JSONStore) Delete(ctx context.Context, key string) error {
	return s.update(func(h *History) error {
		h.Delete(key)
		return nil
	})
}

func (s *JSONStore) Replace(ctx context.Context, h *History) error {
	return s.update(func(cur *History) error {
		*cur = *h.Clone()
		return nil
	})
}

func (s *JSONStore) update(fn func(*History) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.load()
	if err != nil {
		return err
	}
	next := h.Clone()
	if err := fn(next); err != nil {
		return err
	}

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	if err := s.fs.WriteFile(s.path, data); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	s.h = next
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}
