package engine

import (
	"strings"

	"github.com/edutenorio/FolderTracker/internal/snapshot"
)

// View is one of the states an engine can show. Exactly one field is set.
type View struct {
	Folder snapshot.FolderState
	Future snapshot.FutureState
}

// State resolves a folder selector: "a" and "b" rescan that root, anything
// starting with "c" is the latest common state and anything starting with
// "f" is the in-flight future state. Matching is case-insensitive.
func (e *Engine) State(selector string) (View, error) {
	sel := strings.ToLower(strings.TrimSpace(selector))
	switch {
	case sel == "a":
		state, _ := e.scanner.Scan(e.roots[snapshot.SideA])
		return View{Folder: state}, nil
	case sel == "b":
		state, _ := e.scanner.Scan(e.roots[snapshot.SideB])
		return View{Folder: state}, nil
	case strings.HasPrefix(sel, "c"):
		return View{Folder: e.history.Baseline()}, nil
	case strings.HasPrefix(sel, "f"):
		future := e.Future()
		if future == nil {
			future = make(snapshot.FutureState)
		}
		return View{Future: future}, nil
	}
	return View{}, invalid("state", selector, "unknown folder selector", nil)
}
