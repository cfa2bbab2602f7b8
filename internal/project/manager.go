// Package project stores sync projects as YAML files in a projects directory
// and runs sync cycles for them.
package project

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/edutenorio/FolderTracker/internal/config"
	"github.com/edutenorio/FolderTracker/internal/history"
	"github.com/edutenorio/FolderTracker/internal/logging"
)

const fileExt = ".yaml"

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrProjectExists   = errors.New("project already exists")
)

// Manager lists and creates projects in Dir.
type Manager struct {
	Dir string
	log logging.Logger
}

func NewManager(dir string, log logging.Logger) *Manager {
	return &Manager{Dir: dir, log: logging.OrNop(log)}
}

// List loads every project file in Dir, sorted by name. Files that fail to
// load are logged and skipped.
func (m *Manager) List() ([]*Project, error) {
	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating projects directory: %w", err)
	}

	entries, err := os.ReadDir(m.Dir)
	if err != nil {
		return nil, fmt.Errorf("reading projects directory: %w", err)
	}

	var projects []*Project
	for _, ent := range entries {
		if ent.IsDir() || filepath.Ext(ent.Name()) != fileExt {
			continue
		}
		path := filepath.Join(m.Dir, ent.Name())
		cfg, err := config.Load(path)
		if err != nil {
			m.log.Warn("skipping project file", "path", path, "error", err)
			continue
		}
		projects = append(projects, newProject(path, cfg, m.log))
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].Name() < projects[j].Name()
	})
	return projects, nil
}

func (m *Manager) Names() ([]string, error) {
	projects, err := m.List()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(projects))
	for _, p := range projects {
		names = append(names, p.Name())
	}
	return names, nil
}

// Get finds a project by name.
func (m *Manager) Get(name string) (*Project, error) {
	projects, err := m.List()
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrProjectNotFound, name)
}

// Create writes a new project file named after a random UUID.
func (m *Manager) Create(name, folderA, folderB string) (*Project, error) {
	return m.CreateFrom(config.Default(name, folderA, folderB))
}

// CreateFrom writes cfg as a new project after validating it.
func (m *Manager) CreateFrom(cfg *config.Config) (*Project, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := m.Get(cfg.Name); err == nil {
		return nil, fmt.Errorf("%w: %q", ErrProjectExists, cfg.Name)
	} else if !errors.Is(err, ErrProjectNotFound) {
		return nil, err
	}

	path := filepath.Join(m.Dir, strings.ReplaceAll(uuid.NewString(), "-", "")+fileExt)
	if err := cfg.Save(path); err != nil {
		return nil, err
	}
	m.log.Info("project created", "name", cfg.Name, "path", path)
	return newProject(path, cfg, m.log), nil
}

// SaveAs copies p under newName, history included.
func (m *Manager) SaveAs(ctx context.Context, p *Project, newName string) (*Project, error) {
	cfg := *p.Config
	cfg.Name = newName
	cfg.Sync.Ignore = append([]string(nil), p.Config.Sync.Ignore...)
	// A fresh file gets its own history store next to it.
	cfg.History.Path = ""
	if ext := filepath.Ext(p.HistoryPath()); strings.EqualFold(ext, ".json") {
		cfg.History.Path = strings.ReplaceAll(uuid.NewString(), "-", "") + ".json"
	}

	h, err := p.LoadHistory(ctx)
	if err != nil {
		return nil, err
	}

	copied, err := m.CreateFrom(&cfg)
	if err != nil {
		return nil, err
	}

	store, err := history.Open(copied.HistoryPath(), history.WithLogger(m.log))
	if err != nil {
		return nil, err
	}
	defer store.Close()
	if err := store.Replace(ctx, h); err != nil {
		return nil, fmt.Errorf("copying history: %w", err)
	}
	return copied, nil
}
