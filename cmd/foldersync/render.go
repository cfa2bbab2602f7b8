package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"

	"github.com/edutenorio/FolderTracker/internal/action"
	"github.com/edutenorio/FolderTracker/internal/engine"
	"github.com/edutenorio/FolderTracker/internal/executor"
	"github.com/edutenorio/FolderTracker/internal/history"
	"github.com/edutenorio/FolderTracker/internal/planner"
	"github.com/edutenorio/FolderTracker/internal/project"
	"github.com/edutenorio/FolderTracker/internal/scanner"
	"github.com/edutenorio/FolderTracker/internal/snapshot"
)

const actionWidth = len("delete folder from A")

// renderPlan lists pending actions. "no action" paths are only shown when
// all is set.
func renderPlan(w io.Writer, plan *planner.Plan, all bool) {
	for _, path := range plan.Paths() {
		act := plan.Actions[path]
		if act == action.NoAction && !all {
			continue
		}
		fe := plan.Future[path]
		name := fmt.Sprintf("%-*s", actionWidth, act)
		fmt.Fprintf(w, "  %s  %s %s\n", actionStyle(act).Render(name), path, gray.Render(futureDetail(fe)))
	}

	summary := fmt.Sprintf("%d pending, %d unchanged", plan.Pending(), len(plan.Actions)-plan.Pending())
	if n := len(plan.Conflicts()); n > 0 {
		summary += ", " + yellow.Render(fmt.Sprintf("%d %s", n, plural(n, "conflict", "conflicts")))
	}
	fmt.Fprintln(w, bold.Render(summary))
}

func futureDetail(fe snapshot.FutureEntry) string {
	if fe.IsConflict() {
		return fmt.Sprintf("(%s, A %s / B %s)", fe.Tag, entrySize(fe.Conflict.A), entrySize(fe.Conflict.B))
	}
	if fe.Entry.Type == snapshot.Folder {
		return fmt.Sprintf("(%s)", fe.Tag)
	}
	return fmt.Sprintf("(%s, %s)", fe.Tag, entrySize(fe.Entry))
}

func entrySize(e snapshot.Entry) string {
	if e.Type == snapshot.Folder {
		return "folder"
	}
	return humanize.Bytes(uint64(e.Size))
}

func renderWarnings(w io.Writer, warnings map[snapshot.Side][]scanner.Warning) {
	for _, side := range []snapshot.Side{snapshot.SideA, snapshot.SideB} {
		for _, warn := range warnings[side] {
			fmt.Fprintf(w, "  %s %s: %v\n", yellow.Render("scan "+string(side)+":"), warn.Path, warn.Err)
		}
	}
}

func renderReport(w io.Writer, res *engine.Result) {
	for _, o := range res.Report {
		if o.Action == action.NoAction && o.Status == executor.StatusOK {
			continue
		}
		status := green.Render(string(o.Status))
		switch o.Status {
		case executor.StatusWarning:
			status = yellow.Render(string(o.Status))
		case executor.StatusFailed:
			status = red.Render(string(o.Status))
		}
		line := fmt.Sprintf("  %-7s  %s  %s", status, actionStyle(o.Action).Render(o.Action.String()), o.Path)
		if o.Err != nil {
			line += gray.Render(": " + o.Err.Error())
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintf(w, "%s %s: %d %s, %s\n",
		bold.Render("snapshot"), res.Key,
		len(res.Snapshot), plural(len(res.Snapshot), "entry", "entries"),
		humanize.Bytes(uint64(res.Snapshot.TotalSize())),
	)
	if f := len(res.Report.Failures()); f > 0 {
		fmt.Fprintln(w, red.Render(fmt.Sprintf("%d %s failed", f, plural(f, "action", "actions"))))
	}
	if n := len(res.Report.Warnings()); n > 0 {
		fmt.Fprintln(w, yellow.Render(fmt.Sprintf("%d %s", n, plural(n, "warning", "warnings"))))
	}
}

func renderFolderState(w io.Writer, state snapshot.FolderState) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, path := range state.Paths() {
		e := state[path]
		hash := ""
		if e.Type == snapshot.File {
			hash = shortHash(e.Hash)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Type, entrySize(e), e.MTime.Local().Format(time.DateTime), hash, path)
	}
	tw.Flush()
	fmt.Fprintf(w, "%d files, %d folders, %s\n",
		state.Files(), len(state)-state.Files(), humanize.Bytes(uint64(state.TotalSize())))
}

func renderFutureState(w io.Writer, future snapshot.FutureState) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, path := range slices.Sorted(maps.Keys(future)) {
		fe := future[path]
		fmt.Fprintf(tw, "%s\t%s\t%s\n", fe.Tag, fe.Entry.Type, path)
	}
	tw.Flush()
}

func renderHistory(w io.Writer, h *history.History, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY (UTC)\tAGE\tFILES\tFOLDERS\tSIZE")
	for _, key := range h.Keys() {
		state, _ := h.Get(key)
		age := ""
		if t, err := history.ParseKey(key); err == nil {
			age = humanize.RelTime(t, now, "ago", "from now")
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", key, age,
			state.Files(), len(state)-state.Files(), humanize.Bytes(uint64(state.TotalSize())))
	}
	tw.Flush()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// syncOutput is the --json shape of a sync run.
type syncOutput struct {
	Project   string                   `json:"project"`
	DryRun    bool                     `json:"dry_run"`
	Actions   map[string]action.Action `json:"actions"`
	Conflicts []string                 `json:"conflicts"`
	Key       string                   `json:"key,omitempty"`
	Outcomes  []outcomeOutput          `json:"outcomes,omitempty"`
}

type outcomeOutput struct {
	Path   string          `json:"path"`
	Action action.Action   `json:"action"`
	Status executor.Status `json:"status"`
	Error  string          `json:"error,omitempty"`
}

func newSyncOutput(name string, res *project.SyncResult) syncOutput {
	out := syncOutput{
		Project:   name,
		DryRun:    res.Result == nil,
		Actions:   res.Plan.Actions,
		Conflicts: res.Plan.Conflicts(),
	}
	if res.Result != nil {
		out.Key = res.Result.Key
		for _, o := range res.Result.Report {
			oo := outcomeOutput{Path: o.Path, Action: o.Action, Status: o.Status}
			if o.Err != nil {
				oo.Error = o.Err.Error()
			}
			out.Outcomes = append(out.Outcomes, oo)
		}
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
