// Package executor applies a sync plan to both roots and collects the
// resulting common state.
package executor

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/edutenorio/FolderTracker/internal/action"
	"github.com/edutenorio/FolderTracker/internal/fs"
	"github.com/edutenorio/FolderTracker/internal/logging"
	"github.com/edutenorio/FolderTracker/internal/snapshot"
)

// Fingerprinter computes the current entry of a path under a root.
// *scanner.Scanner implements it.
type Fingerprinter interface {
	Fingerprint(root, rel string) (snapshot.Entry, error)
}

type Executor struct {
	fs    fs.FS
	fp    Fingerprinter
	roots map[snapshot.Side]string
	log   logging.Logger
}

func New(fsys fs.FS, fp Fingerprinter, rootA, rootB string, log logging.Logger) *Executor {
	if fsys == nil {
		fsys = fs.New()
	}
	return &Executor{
		fs:    fsys,
		fp:    fp,
		roots: map[snapshot.Side]string{snapshot.SideA: rootA, snapshot.SideB: rootB},
		log:   logging.OrNop(log),
	}
}

// Apply runs every action and returns the entries that make up the new
// common state together with one outcome per path. Failures never stop the
// batch; only successfully applied paths are recorded.
func (e *Executor) Apply(ctx context.Context, actions map[string]action.Action) (snapshot.FolderState, Report) {
	e.log.Debug("entering Executor.Apply()", "actions", len(actions))
	state := make(snapshot.FolderState, len(actions))
	report := make(Report, 0, len(actions))

	paths := make([]string, 0, len(actions))
	for p := range actions {
		paths = append(paths, p)
	}
	// Children before parents.
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))

	for _, p := range paths {
		out := e.apply(ctx, p, actions[p], state)
		switch out.Status {
		case StatusFailed:
			e.log.Error("sync action failed", "path", p, "action", out.Action.String(), "error", out.Err)
		case StatusWarning:
			e.log.Warn("sync action finished with warning", "path", p, "action", out.Action.String(), "error", out.Err)
		default:
			e.log.Debug("sync action applied", "path", p, "action", out.Action.String())
		}
		report = append(report, out)
	}
	return state, report
}

func (e *Executor) apply(ctx context.Context, rel string, act action.Action, state snapshot.FolderState) Outcome {
	out := Outcome{Path: rel, Action: act, Status: StatusOK}
	if err := ctx.Err(); err != nil {
		return out.fail(err)
	}

	switch act {
	case action.NoAction:
		return e.record(out, state, snapshot.SideA, rel)

	case action.CopyFileToA, action.CopyFileToB:
		dst := sideOf(act)
		if err := e.copy(ctx, dst.Other(), rel, dst, rel); err != nil {
			return out.fail(err)
		}
		return e.record(out, state, dst.Other(), rel)

	case action.CreateFolderInA, action.CreateFolderInB:
		dst := sideOf(act)
		full := e.abs(dst, rel)
		if err := e.fs.MkdirAll(full); err != nil {
			return out.fail(fs.NewOpError("mkdir", full, err))
		}
		return e.record(out, state, dst.Other(), rel)

	case action.DeleteFileFromA, action.DeleteFileFromB:
		return e.deleteFile(out, sideOf(act), rel)

	case action.DeleteFolderFromA, action.DeleteFolderFromB:
		return e.deleteFolder(out, sideOf(act), rel)

	case action.ConflictKeepA, action.ConflictKeepB:
		keep := sideOf(act)
		entry, err := e.fp.Fingerprint(e.roots[keep], rel)
		if err != nil {
			return out.fail(fs.NewOpError("fingerprint", e.abs(keep, rel), err))
		}
		if err := e.copy(ctx, keep, rel, keep.Other(), rel); err != nil {
			return out.fail(err)
		}
		state[rel] = entry
		return out

	case action.ConflictKeepBoth:
		return e.keepBoth(ctx, out, state, rel)
	}

	return out.fail(fmt.Errorf("%w: %s", action.ErrUnknown, act))
}

// keepBoth moves the two versions of rel aside as name_A.ext and name_B.ext
// in both roots. The originals are only removed once all four copies exist.
func (e *Executor) keepBoth(ctx context.Context, out Outcome, state snapshot.FolderState, rel string) Outcome {
	nameA, nameB := ConflictNames(rel)

	var errs []error
	okA, okB := true, true
	for _, c := range []struct {
		from snapshot.Side
		to   snapshot.Side
		name string
		ok   *bool
	}{
		{snapshot.SideA, snapshot.SideA, nameA, &okA},
		{snapshot.SideA, snapshot.SideB, nameA, &okA},
		{snapshot.SideB, snapshot.SideA, nameB, &okB},
		{snapshot.SideB, snapshot.SideB, nameB, &okB},
	} {
		if err := e.copy(ctx, c.from, rel, c.to, c.name); err != nil {
			errs = append(errs, err)
			*c.ok = false
		}
	}

	if okA {
		e.recordAs(&errs, state, snapshot.SideA, nameA)
	}
	if okB {
		e.recordAs(&errs, state, snapshot.SideB, nameB)
	}

	if okA && okB {
		for _, side := range []snapshot.Side{snapshot.SideA, snapshot.SideB} {
			full := e.abs(side, rel)
			if err := e.fs.Remove(full); err != nil && !fs.IsNotExist(err) {
				errs = append(errs, fs.NewOpError("remove", full, err))
			}
		}
		e.log.Info("conflict copies created", "path", rel, "a", nameA, "b", nameB)
	}

	if len(errs) > 0 {
		return out.fail(errors.Join(errs...))
	}
	return out
}

func (e *Executor) deleteFile(out Outcome, side snapshot.Side, rel string) Outcome {
	full := e.abs(side, rel)
	info, err := e.fs.Stat(full)
	switch {
	case fs.IsNotExist(err):
		return out.warn(fs.NewOpError("remove", full, err))
	case err != nil:
		return out.fail(fs.NewOpError("remove", full, err))
	case info.IsDir && !info.IsLink:
		return out.fail(fs.NewOpError("remove", full, fs.ErrIsDir("remove", full)))
	}

	if err := e.fs.Remove(full); err != nil {
		return out.fail(fs.NewOpError("remove", full, err))
	}
	e.log.Info("file deleted", "path", full)
	return out
}

func (e *Executor) deleteFolder(out Outcome, side snapshot.Side, rel string) Outcome {
	full := e.abs(side, rel)
	info, err := e.fs.Stat(full)
	switch {
	case fs.IsNotExist(err):
		return out.warn(fs.NewOpError("remove", full, err))
	case err != nil:
		return out.fail(fs.NewOpError("remove", full, err))
	case !info.IsDir:
		return out.fail(fs.NewOpError("remove", full, fs.ErrNotDir("remove", full)))
	}

	if err := e.fs.RemoveAll(full); err != nil {
		return out.fail(fs.NewOpError("remove", full, err))
	}
	e.log.Info("folder deleted", "path", full)
	return out
}

func (e *Executor) copy(ctx context.Context, from snapshot.Side, src string, to snapshot.Side, dst string) error {
	srcPath, dstPath := e.abs(from, src), e.abs(to, dst)
	if err := e.fs.CopyFile(ctx, srcPath, dstPath); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fs.NewOpError("copy", srcPath, err)
	}
	e.log.Debug("file copied", "src", srcPath, "dst", dstPath)
	return nil
}

// record fingerprints rel on side and stores it. A path that can no longer be
// read was applied but is left out of the new state.
func (e *Executor) record(out Outcome, state snapshot.FolderState, side snapshot.Side, rel string) Outcome {
	entry, err := e.fp.Fingerprint(e.roots[side], rel)
	if err != nil {
		return out.warn(fs.NewOpError("fingerprint", e.abs(side, rel), err))
	}
	state[rel] = entry
	return out
}

func (e *Executor) recordAs(errs *[]error, state snapshot.FolderState, side snapshot.Side, rel string) {
	entry, err := e.fp.Fingerprint(e.roots[side], rel)
	if err != nil {
		*errs = append(*errs, fs.NewOpError("fingerprint", e.abs(side, rel), err))
		return
	}
	state[rel] = entry
}

func (e *Executor) abs(side snapshot.Side, rel string) string {
	return filepath.Join(e.roots[side], filepath.FromSlash(rel))
}

func (o Outcome) fail(err error) Outcome {
	o.Status, o.Err = StatusFailed, err
	return o
}

func (o Outcome) warn(err error) Outcome {
	o.Status, o.Err = StatusWarning, err
	return o
}

// sideOf returns the side an action writes to, or keeps for conflicts.
func sideOf(a action.Action) snapshot.Side {
	switch a {
	case action.CopyFileToA, action.CreateFolderInA, action.DeleteFileFromA,
		action.DeleteFolderFromA, action.ConflictKeepA:
		return snapshot.SideA
	}
	return snapshot.SideB
}

// ConflictNames derives the two side-marked names for a conflicting path:
// "dir/report.docx" becomes "dir/report_A.docx" and "dir/report_B.docx".
// Leading dots do not start an extension, so ".env" becomes ".env_A".
func ConflictNames(rel string) (string, string) {
	stem, ext := splitExt(rel)
	return stem + "_A" + ext, stem + "_B" + ext
}

func splitExt(p string) (string, string) {
	base := path.Base(p)
	i := strings.LastIndexByte(base, '.')
	if i <= 0 || strings.TrimLeft(base[:i], ".") == "" {
		return p, ""
	}
	cut := len(p) - len(base) + i
	return p[:cut], p[cut:]
}
