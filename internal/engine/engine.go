// Package engine ties scanning, planning and execution together for one
// pair of roots. An Engine is not safe for concurrent use; callers serialize
// Prepare and Execute.
package engine

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/edutenorio/FolderTracker/internal/action"
	"github.com/edutenorio/FolderTracker/internal/executor"
	"github.com/edutenorio/FolderTracker/internal/fs"
	"github.com/edutenorio/FolderTracker/internal/history"
	"github.com/edutenorio/FolderTracker/internal/logging"
	"github.com/edutenorio/FolderTracker/internal/planner"
	"github.com/edutenorio/FolderTracker/internal/scanner"
	"github.com/edutenorio/FolderTracker/internal/snapshot"
)

type Engine struct {
	fs         fs.FS
	log        logging.Logger
	clock      func() time.Time
	onConflict action.Action
	ignore     []string

	roots   map[snapshot.Side]string
	history *history.History
	scanner *scanner.Scanner

	plan     *planner.Plan
	states   map[snapshot.Side]snapshot.FolderState
	warnings map[snapshot.Side][]scanner.Warning
}

type Option func(*Engine)

func WithFS(fsys fs.FS) Option {
	return func(e *Engine) { e.fs = fsys }
}

// WithHistory seeds the engine with previously persisted history.
func WithHistory(h *history.History) Option {
	return func(e *Engine) {
		if h != nil {
			e.history = h.Clone()
		}
	}
}

func WithLogger(log logging.Logger) Option {
	return func(e *Engine) { e.log = logging.OrNop(log) }
}

// WithConflictPolicy replaces keep-both as the resolution planned for
// conflicts. New rejects anything outside the conflict sub-vocabulary.
func WithConflictPolicy(a action.Action) Option {
	return func(e *Engine) { e.onConflict = a }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.clock = now }
}

// WithIgnore excludes matching relative paths from both scans.
func WithIgnore(patterns ...string) Option {
	return func(e *Engine) { e.ignore = append(e.ignore, patterns...) }
}

// New creates an engine for rootA and rootB. Roots that do not exist are
// created empty.
func New(rootA, rootB string, opts ...Option) (*Engine, error) {
	e := &Engine{
		log:        logging.Nop,
		clock:      time.Now,
		onConflict: planner.DefaultConflictPolicy,
		roots:      make(map[snapshot.Side]string, 2),
		history:    history.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.fs == nil {
		e.fs = fs.New()
	}

	if !e.onConflict.IsConflict() {
		return nil, invalid("new engine", e.onConflict.String(), "not a conflict resolution", action.ErrUnknown)
	}
	if err := scanner.ValidatePatterns(e.ignore); err != nil {
		return nil, invalid("new engine", "ignore", "bad pattern", err)
	}
	e.scanner = scanner.New(e.fs, scanner.WithLogger(e.log), scanner.WithIgnore(e.ignore...))

	if err := e.SetRoot(snapshot.SideA, rootA); err != nil {
		return nil, err
	}
	if err := e.SetRoot(snapshot.SideB, rootB); err != nil {
		return nil, err
	}
	return e, nil
}

// SetRoot points side at path, creating it if needed. Any prepared plan is
// discarded since it no longer describes these roots.
func (e *Engine) SetRoot(side snapshot.Side, path string) error {
	if side != snapshot.SideA && side != snapshot.SideB {
		return invalid("set root", string(side), "unknown side", nil)
	}
	if strings.TrimSpace(path) == "" {
		return invalid("set root", string(side), "empty path", nil)
	}

	info, err := e.fs.Stat(path)
	switch {
	case fs.IsNotExist(err):
		e.log.Debug("root does not exist and is being created", "side", side, "path", path)
		if err := e.fs.MkdirAll(path); err != nil {
			return fmt.Errorf("creating root %s: %w", side, err)
		}
	case err != nil:
		return fmt.Errorf("checking root %s: %w", side, err)
	case !info.IsDir:
		return invalid("set root", path, "not a directory", nil)
	}

	e.roots[side] = path
	e.reset()
	e.log.Debug("root set", "side", side, "path", path)
	return nil
}

func (e *Engine) Root(side snapshot.Side) string {
	return e.roots[side]
}

// History returns a copy of the engine's history.
func (e *Engine) History() *history.History {
	return e.history.Clone()
}

// Prepare scans both roots and plans against the latest history snapshot.
// The plan stays in flight until executed or replaced.
func (e *Engine) Prepare(ctx context.Context) (*planner.Plan, error) {
	e.log.Debug("entering Engine.Prepare()")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.reset()
	for _, side := range []snapshot.Side{snapshot.SideA, snapshot.SideB} {
		state, warnings := e.scanner.Scan(e.roots[side])
		e.states[side] = state
		e.warnings[side] = warnings
	}

	plan := planner.Build(e.states[snapshot.SideA], e.states[snapshot.SideB], e.history.Baseline(),
		planner.WithConflictPolicy(e.onConflict))
	e.plan = plan

	e.log.Info("sync plan prepared",
		"paths", len(plan.Actions),
		"pending", plan.Pending(),
		"conflicts", len(plan.Conflicts()),
	)
	return plan, nil
}

// Plan returns the in-flight plan, or nil.
func (e *Engine) Plan() *planner.Plan {
	return e.plan
}

// Actions returns a copy of the in-flight action map, or nil.
func (e *Engine) Actions() map[string]action.Action {
	if e.plan == nil {
		return nil
	}
	return e.plan.CopyActions()
}

// Future returns a copy of the in-flight future state, or nil.
func (e *Engine) Future() snapshot.FutureState {
	if e.plan == nil {
		return nil
	}
	return maps.Clone(e.plan.Future)
}

// StateA and StateB return the scans taken by the last Prepare.
func (e *Engine) StateA() snapshot.FolderState { return e.states[snapshot.SideA].Clone() }
func (e *Engine) StateB() snapshot.FolderState { return e.states[snapshot.SideB].Clone() }

// ScanWarnings returns the entries skipped by the last Prepare, per side.
func (e *Engine) ScanWarnings() map[snapshot.Side][]scanner.Warning {
	return maps.Clone(e.warnings)
}

func (e *Engine) HasConflicts() bool {
	return len(e.Conflicts()) > 0
}

// Conflicts lists the conflicting paths of the in-flight plan.
func (e *Engine) Conflicts() []string {
	if e.plan == nil {
		return nil
	}
	return e.plan.Conflicts()
}

// Override replaces the planned action for path with a conflict resolution.
// The future state is left as planned.
func (e *Engine) Override(path string, act action.Action) error {
	const op = "override"
	if e.plan == nil || e.plan.Consumed() {
		return invalid(op, path, "no plan in flight", ErrNoPlan)
	}
	if _, ok := e.plan.Actions[path]; !ok {
		return invalid(op, path, "no planned action for path", nil)
	}
	if !act.IsConflict() {
		return invalid(op, path, fmt.Sprintf("%q is not a conflict resolution", act), action.ErrUnknown)
	}

	e.log.Debug("action overridden", "path", path, "from", e.plan.Actions[path].String(), "to", act.String())
	e.plan.Actions[path] = act
	return nil
}

// Result is what one execution produced.
type Result struct {
	Key      string
	Snapshot snapshot.FolderState
	Report   executor.Report
	History  *history.History
}

// Execute applies actions, or the in-flight plan when actions is empty.
// Every action is validated before anything is touched. Exactly one history
// snapshot is appended and the in-flight plan is cleared.
func (e *Engine) Execute(ctx context.Context, actions map[string]action.Action) (*Result, error) {
	if len(actions) == 0 {
		return e.ExecutePlan(ctx, e.plan)
	}

	for path, act := range actions {
		if !act.Valid() {
			return nil, invalid("execute", path, "invalid action", fmt.Errorf("%w: %s", action.ErrUnknown, act))
		}
	}
	return e.run(ctx, actions)
}

// ExecutePlan applies plan and consumes it.
func (e *Engine) ExecutePlan(ctx context.Context, plan *planner.Plan) (*Result, error) {
	if plan == nil {
		return nil, invalid("execute", "", "nothing to execute", ErrNoPlan)
	}
	for path, act := range plan.Actions {
		if !act.Valid() {
			return nil, invalid("execute", path, "invalid action", fmt.Errorf("%w: %s", action.ErrUnknown, act))
		}
	}
	if !plan.Consume() {
		return nil, invalid("execute", "", "plan is single-use", ErrPlanConsumed)
	}
	return e.run(ctx, plan.Actions)
}

func (e *Engine) run(ctx context.Context, actions map[string]action.Action) (*Result, error) {
	e.log.Debug("entering Engine.run()", "actions", len(actions))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ex := executor.New(e.fs, e.scanner, e.roots[snapshot.SideA], e.roots[snapshot.SideB], e.log)
	state, report := ex.Apply(ctx, actions)

	key := e.history.Append(e.clock(), state)
	if e.plan != nil {
		e.plan.Consume()
	}
	e.plan = nil

	e.log.Info("sync executed",
		"key", key,
		"entries", len(state),
		"warnings", len(report.Warnings()),
		"failures", len(report.Failures()),
	)
	return &Result{
		Key:      key,
		Snapshot: state,
		Report:   report,
		History:  e.history.Clone(),
	}, nil
}

func (e *Engine) reset() {
	if e.plan != nil {
		e.plan.Consume()
	}
	e.plan = nil
	e.states = make(map[snapshot.Side]snapshot.FolderState, 2)
	e.warnings = make(map[snapshot.Side][]scanner.Warning, 2)
}
