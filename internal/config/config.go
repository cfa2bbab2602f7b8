// Package config defines the per-project YAML file.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/edutenorio/FolderTracker/internal/action"
	"github.com/edutenorio/FolderTracker/internal/logging"
	"github.com/edutenorio/FolderTracker/internal/scanner"
)

type Config struct {
	Name     string         `yaml:"name"`
	FolderA  string         `yaml:"folderA"`
	FolderB  string         `yaml:"folderB"`
	History  HistoryConfig  `yaml:"history"`
	Sync     SyncConfig     `yaml:"sync"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type HistoryConfig struct {
	// Path is resolved against the project file's directory. A ".json"
	// extension selects the JSON store, anything else SQLite.
	Path string `yaml:"path"`
}

type SyncConfig struct {
	OnConflict string   `yaml:"onConflict"`       // "keep-a", "keep-b", "keep-both"
	Ignore     []string `yaml:"ignore,omitempty"` // doublestar patterns
}

type ScheduleConfig struct {
	Cron string `yaml:"cron"` // e.g. "@every 15m", "0 * * * *"
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "info", "debug", etc.
	Format string `yaml:"format"` // "json", "text"
	File   string `yaml:"file,omitempty"`
}

// Default returns a config for a new project.
func Default(name, folderA, folderB string) *Config {
	return &Config{
		Name:    name,
		FolderA: folderA,
		FolderB: folderB,
		Sync:    SyncConfig{OnConflict: "keep-both"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if c.FolderA == "" || c.FolderB == "" {
		errs = append(errs, errors.New("folderA and folderB are required"))
	} else if filepath.Clean(c.FolderA) == filepath.Clean(c.FolderB) {
		errs = append(errs, errors.New("folderA and folderB must differ"))
	}
	if _, err := c.ConflictPolicy(); err != nil {
		errs = append(errs, fmt.Errorf("sync.onConflict: %w", err))
	}
	if err := scanner.ValidatePatterns(c.Sync.Ignore); err != nil {
		errs = append(errs, fmt.Errorf("sync.ignore: %w", err))
	}
	if c.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			errs = append(errs, fmt.Errorf("schedule.cron: %w", err))
		}
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	return errors.Join(errs...)
}

// ConflictPolicy maps sync.onConflict onto an action. Empty means keep both.
func (c *Config) ConflictPolicy() (action.Action, error) {
	if c.Sync.OnConflict == "" {
		return action.ConflictKeepBoth, nil
	}
	return action.ParseResolution(c.Sync.OnConflict)
}

// HistoryPath resolves the history store location for a project stored at
// projectFile. Without an explicit path the store sits next to the project
// file with a ".db" extension.
func (c *Config) HistoryPath(projectFile string) string {
	dir := filepath.Dir(projectFile)
	if c.History.Path == "" {
		base := strings.TrimSuffix(filepath.Base(projectFile), filepath.Ext(projectFile))
		return filepath.Join(dir, base+".db")
	}
	if filepath.IsAbs(c.History.Path) {
		return c.History.Path
	}
	return filepath.Join(dir, c.History.Path)
}
