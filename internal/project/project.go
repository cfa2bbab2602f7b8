package project

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"

	"github.com/edutenorio/FolderTracker/internal/action"
	"github.com/edutenorio/FolderTracker/internal/config"
	"github.com/edutenorio/FolderTracker/internal/engine"
	"github.com/edutenorio/FolderTracker/internal/history"
	"github.com/edutenorio/FolderTracker/internal/logging"
	"github.com/edutenorio/FolderTracker/internal/planner"
)

var (
	ErrProjectLocked = errors.New("project locked by another process")
	ErrNotOpen       = errors.New("project not open")
)

// Project is one pair of folders plus its history. Open it before syncing;
// an open project holds an exclusive lock next to its file.
type Project struct {
	Path   string
	Config *config.Config

	log    logging.Logger
	flock  *flock.Flock
	store  history.Store
	engine *engine.Engine
}

func newProject(path string, cfg *config.Config, log logging.Logger) *Project {
	return &Project{
		Path:   path,
		Config: cfg,
		log:    log,
		flock:  flock.New(path + ".lock"),
	}
}

// Load reads a single project file.
func Load(path string, log logging.Logger) (*Project, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return newProject(path, cfg, logging.OrNop(log)), nil
}

func (p *Project) Name() string {
	return p.Config.Name
}

func (p *Project) HistoryPath() string {
	return p.Config.HistoryPath(p.Path)
}

func (p *Project) String() string {
	return fmt.Sprintf("Project: %q, Folder A: %q, Folder B: %q", p.Config.Name, p.Config.FolderA, p.Config.FolderB)
}

// Open locks the project, loads its history and builds the engine.
func (p *Project) Open(ctx context.Context) error {
	locked, err := p.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock project: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrProjectLocked, p.Name())
	}

	store, err := history.Open(p.HistoryPath(), history.WithLogger(p.log))
	if err != nil {
		_ = p.flock.Unlock()
		return err
	}
	h, err := store.Load(ctx)
	if err != nil {
		_ = store.Close()
		_ = p.flock.Unlock()
		return fmt.Errorf("loading history: %w", err)
	}

	e, err := p.newEngine(h)
	if err != nil {
		_ = store.Close()
		_ = p.flock.Unlock()
		return err
	}

	p.store = store
	p.engine = e
	p.log.Debug("project opened", "name", p.Name(), "history", h.Len())
	return nil
}

func (p *Project) newEngine(h *history.History) (*engine.Engine, error) {
	policy, err := p.Config.ConflictPolicy()
	if err != nil {
		return nil, err
	}
	return engine.New(p.Config.FolderA, p.Config.FolderB,
		engine.WithHistory(h),
		engine.WithLogger(p.log),
		engine.WithConflictPolicy(policy),
		engine.WithIgnore(p.Config.Sync.Ignore...),
	)
}

// Reload re-reads the project file. An open project gets a new engine
// carrying the history it already has.
func (p *Project) Reload() error {
	cfg, err := config.Load(p.Path)
	if err != nil {
		return err
	}
	if p.engine != nil {
		if cfg.HistoryPath(p.Path) != p.HistoryPath() {
			return fmt.Errorf("history path cannot change while the project is open")
		}
		prev := p.Config
		p.Config = cfg
		e, err := p.newEngine(p.engine.History())
		if err != nil {
			p.Config = prev
			return err
		}
		p.engine = e
		return nil
	}
	p.Config = cfg
	return nil
}

// Engine returns the engine of an open project, or nil.
func (p *Project) Engine() *engine.Engine {
	return p.engine
}

// Store returns the history store of an open project, or nil.
func (p *Project) Store() history.Store {
	return p.store
}

// LoadHistory returns the project's history, reading the store directly when
// the project is not open.
func (p *Project) LoadHistory(ctx context.Context) (*history.History, error) {
	if p.engine != nil {
		return p.engine.History(), nil
	}
	store, err := history.Open(p.HistoryPath(), history.WithLogger(p.log))
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Load(ctx)
}

type SyncOptions struct {
	// Overrides replace planned actions before execution.
	Overrides map[string]action.Action
	// DryRun stops after planning.
	DryRun bool
}

type SyncResult struct {
	Plan   *planner.Plan
	Result *engine.Result // nil on a dry run
}

// Sync runs one full cycle: plan, apply overrides, execute, persist.
func (p *Project) Sync(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	if p.engine == nil {
		return nil, ErrNotOpen
	}

	plan, err := p.engine.Prepare(ctx)
	if err != nil {
		return nil, fmt.Errorf("preparing sync: %w", err)
	}
	for path, act := range opts.Overrides {
		if err := p.engine.Override(path, act); err != nil {
			return nil, err
		}
	}
	if opts.DryRun {
		return &SyncResult{Plan: plan}, nil
	}

	res, err := p.engine.Execute(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("executing sync: %w", err)
	}
	// The filesystem already changed; store the snapshot even if the caller
	// has given up waiting.
	if err := p.store.Append(context.WithoutCancel(ctx), res.Key, res.Snapshot); err != nil {
		err = fmt.Errorf("persisting history: %w", err)
		if rerr := p.reloadHistory(context.WithoutCancel(ctx)); rerr != nil {
			err = errors.Join(err, rerr)
		}
		return &SyncResult{Plan: plan, Result: res}, err
	}
	return &SyncResult{Plan: plan, Result: res}, nil
}

// reloadHistory rebuilds the engine from what the store holds, so the next
// sync plans against the persisted baseline.
func (p *Project) reloadHistory(ctx context.Context) error {
	h, err := p.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("reloading history: %w", err)
	}
	e, err := p.newEngine(h)
	if err != nil {
		return err
	}
	p.engine = e
	p.log.Warn("history reloaded from store", "name", p.Name(), "snapshots", h.Len())
	return nil
}

// Close releases the store and the lock.
func (p *Project) Close() error {
	var errs []error
	if p.store != nil {
		errs = append(errs, p.store.Close())
		p.store = nil
	}
	p.engine = nil
	if p.flock.Locked() {
		errs = append(errs, p.flock.Unlock())
		if err := os.Remove(p.flock.Path()); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
