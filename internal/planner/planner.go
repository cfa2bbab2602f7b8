// Package planner performs the three-way diff between the two current
// folder states and the last common state.
package planner

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/edutenorio/FolderTracker/internal/action"
	"github.com/edutenorio/FolderTracker/internal/snapshot"
)

// DefaultConflictPolicy is planned for every conflict unless overridden.
const DefaultConflictPolicy = action.ConflictKeepBoth

// Plan pairs one action with one projected entry per path. A plan is used
// once: executing it consumes it.
type Plan struct {
	Actions map[string]action.Action
	Future  snapshot.FutureState

	consumed bool
}

// Consume marks the plan used and reports whether it was still fresh.
func (p *Plan) Consume() bool {
	if p.consumed {
		return false
	}
	p.consumed = true
	return true
}

func (p *Plan) Consumed() bool {
	return p.consumed
}

// Paths returns the planned paths in lexical order.
func (p *Plan) Paths() []string {
	paths := make([]string, 0, len(p.Actions))
	for path := range p.Actions {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Conflicts lists the paths whose future entry is a conflict, sorted.
func (p *Plan) Conflicts() []string {
	var out []string
	for _, path := range p.Paths() {
		if p.Future[path].IsConflict() {
			out = append(out, path)
		}
	}
	return out
}

// Pending counts the actions that will touch the filesystem.
func (p *Plan) Pending() int {
	n := 0
	for _, a := range p.Actions {
		if a != action.NoAction {
			n++
		}
	}
	return n
}

// CopyActions returns an independent copy of the action map.
func (p *Plan) CopyActions() map[string]action.Action {
	out := make(map[string]action.Action, len(p.Actions))
	for path, a := range p.Actions {
		out[path] = a
	}
	return out
}

type options struct {
	onConflict action.Action
}

type Option func(*options)

// WithConflictPolicy sets the resolution planned for conflicts. Anything
// outside the conflict sub-vocabulary leaves the default in place.
func WithConflictPolicy(a action.Action) Option {
	return func(o *options) {
		if a.IsConflict() {
			o.onConflict = a
		}
	}
}

// Build diffs a and b against common. It never touches the filesystem and
// returns the same plan for the same inputs.
func Build(a, b, common snapshot.FolderState, opts ...Option) *Plan {
	o := options{onConflict: DefaultConflictPolicy}
	for _, opt := range opts {
		opt(&o)
	}

	union := mapset.NewThreadUnsafeSet[string]()
	for _, s := range []snapshot.FolderState{a, b, common} {
		for path := range s {
			union.Add(path)
		}
	}

	plan := &Plan{
		Actions: make(map[string]action.Action, union.Cardinality()),
		Future:  make(snapshot.FutureState, union.Cardinality()),
	}

	paths := union.ToSlice()
	sort.Strings(paths)
	for _, path := range paths {
		ea, inA := a[path]
		eb, inB := b[path]
		eh, inHistory := common[path]

		act, fut, ok := decide(ea, inA, eb, inB, eh, inHistory, o)
		if !ok {
			continue
		}
		plan.Actions[path] = act
		plan.Future[path] = fut
	}
	return plan
}

func decide(ea snapshot.Entry, inA bool, eb snapshot.Entry, inB bool, eh snapshot.Entry, inHistory bool, o options) (action.Action, snapshot.FutureEntry, bool) {
	switch {
	case inA && inB:
		return both(ea, eb, eh, inHistory, o)
	case inA:
		return single(snapshot.SideA, ea, eh, inHistory)
	case inB:
		return single(snapshot.SideB, eb, eh, inHistory)
	}
	// Gone from both sides, nothing left to do.
	return action.Unknown, snapshot.FutureEntry{}, false
}

func both(ea, eb, eh snapshot.Entry, inHistory bool, o options) (action.Action, snapshot.FutureEntry, bool) {
	switch {
	case ea.Type != eb.Type:
		// A file on one side and a folder on the other can only be resolved
		// by hand.
	case ea.Hash == eb.Hash:
		tag := snapshot.TagNewAB
		if inHistory {
			tag = snapshot.TagUnchanged
		}
		return action.NoAction, snapshot.Merged(tag, ea), true
	case inHistory && ea.Hash == eh.Hash:
		return action.CopyFileToA, snapshot.Merged(snapshot.TagUpdatedB, eb), true
	case inHistory && eb.Hash == eh.Hash:
		return action.CopyFileToB, snapshot.Merged(snapshot.TagUpdatedA, ea), true
	}
	return o.onConflict, snapshot.InConflict(ea, eb), true
}

func single(side snapshot.Side, e, eh snapshot.Entry, inHistory bool) (action.Action, snapshot.FutureEntry, bool) {
	if inHistory {
		// The other side removed it since the last sync.
		tag := snapshot.TagDeletedB
		if side == snapshot.SideB {
			tag = snapshot.TagDeletedA
		}
		return action.DeleteFrom(side, eh.Type), snapshot.Merged(tag, e), true
	}

	tag := snapshot.TagNewA
	if side == snapshot.SideB {
		tag = snapshot.TagNewB
	}
	return action.Propagate(side, e.Type), snapshot.Merged(tag, e), true
}
