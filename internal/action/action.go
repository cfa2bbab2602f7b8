// Package action defines the closed set of per-path sync decisions shared by
// the planner, conflict overrides and the executor.
package action

import (
	"errors"
	"fmt"
	"strings"

	"github.com/edutenorio/FolderTracker/internal/snapshot"
)

// VocabularyVersion identifies the string mapping below. Bump it if a name
// ever changes; persisted plans and CLI scripts depend on these strings.
const VocabularyVersion = 1

var ErrUnknown = errors.New("unknown sync action")

type Action int

const (
	Unknown Action = iota
	NoAction
	CopyFileToA
	CopyFileToB
	CreateFolderInA
	CreateFolderInB
	DeleteFileFromA
	DeleteFileFromB
	DeleteFolderFromA
	DeleteFolderFromB
	ConflictKeepA
	ConflictKeepB
	ConflictKeepBoth
)

var names = map[Action]string{
	NoAction:          "no action",
	CopyFileToA:       "copy file to A",
	CopyFileToB:       "copy file to B",
	CreateFolderInA:   "create folder in A",
	CreateFolderInB:   "create folder in B",
	DeleteFileFromA:   "delete file from A",
	DeleteFileFromB:   "delete file from B",
	DeleteFolderFromA: "delete folder from A",
	DeleteFolderFromB: "delete folder from B",
	ConflictKeepA:     "conflict keep A",
	ConflictKeepB:     "conflict keep B",
	ConflictKeepBoth:  "conflict keep both",
}

var byName = func() map[string]Action {
	m := make(map[string]Action, len(names))
	for a, n := range names {
		m[n] = a
	}
	return m
}()

// All lists every valid action in declaration order.
func All() []Action {
	out := make([]Action, 0, len(names))
	for a := NoAction; a <= ConflictKeepBoth; a++ {
		out = append(out, a)
	}
	return out
}

func (a Action) String() string {
	if n, ok := names[a]; ok {
		return n
	}
	return fmt.Sprintf("action(%d)", int(a))
}

func (a Action) Valid() bool {
	_, ok := names[a]
	return ok
}

// IsConflict reports whether a is one of the conflict resolutions.
func (a Action) IsConflict() bool {
	return a == ConflictKeepA || a == ConflictKeepB || a == ConflictKeepBoth
}

// Parse maps a vocabulary string back to its Action.
func Parse(s string) (Action, error) {
	if a, ok := byName[s]; ok {
		return a, nil
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnknown, s)
}

// ParseResolution accepts the conflict sub-vocabulary either verbatim or in
// the short CLI/config form (keep-a, keep-b, keep-both).
func ParseResolution(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keep-a", "a":
		return ConflictKeepA, nil
	case "keep-b", "b":
		return ConflictKeepB, nil
	case "keep-both", "both":
		return ConflictKeepBoth, nil
	}
	a, err := Parse(s)
	if err != nil {
		return Unknown, err
	}
	if !a.IsConflict() {
		return Unknown, fmt.Errorf("%w: %q is not a conflict resolution", ErrUnknown, s)
	}
	return a, nil
}

// ParseMap converts an externally supplied plan.
func ParseMap(in map[string]string) (map[string]Action, error) {
	out := make(map[string]Action, len(in))
	for path, s := range in {
		a, err := Parse(s)
		if err != nil {
			return nil, fmt.Errorf("path %q: %w", path, err)
		}
		out[path] = a
	}
	return out, nil
}

func (a Action) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknown, int(a))
	}
	return []byte(names[a]), nil
}

func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// CopyTo is the copy action whose destination is side.
func CopyTo(side snapshot.Side) Action {
	if side == snapshot.SideA {
		return CopyFileToA
	}
	return CopyFileToB
}

// CreateIn is the folder creation action for side.
func CreateIn(side snapshot.Side) Action {
	if side == snapshot.SideA {
		return CreateFolderInA
	}
	return CreateFolderInB
}

// DeleteFrom picks the file or folder delete for side.
func DeleteFrom(side snapshot.Side, t snapshot.EntryType) Action {
	switch {
	case side == snapshot.SideA && t == snapshot.Folder:
		return DeleteFolderFromA
	case side == snapshot.SideA:
		return DeleteFileFromA
	case t == snapshot.Folder:
		return DeleteFolderFromB
	default:
		return DeleteFileFromB
	}
}

// Propagate returns the action that brings a path present only on from
// over to the other side.
func Propagate(from snapshot.Side, t snapshot.EntryType) Action {
	if t == snapshot.Folder {
		return CreateIn(from.Other())
	}
	return CopyTo(from.Other())
}
