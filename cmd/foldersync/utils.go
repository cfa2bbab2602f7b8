package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/edutenorio/FolderTracker/internal/action"
	"github.com/edutenorio/FolderTracker/internal/project"
)

var (
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	gray   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	bold   = lipgloss.NewStyle().Bold(true)
)

// openProject finds name and opens it. The caller closes it.
func (a *app) openProject(ctx context.Context, name string) (*project.Project, error) {
	p, err := a.manager().Get(name)
	if err != nil {
		return nil, err
	}
	if err := p.Open(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// parseResolutions turns repeated path=resolution flags into overrides.
func parseResolutions(in []string) (map[string]action.Action, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]action.Action, len(in))
	for _, kv := range in {
		path, res, ok := strings.Cut(kv, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("invalid --resolve %q, want path=keep-a|keep-b|keep-both", kv)
		}
		act, err := action.ParseResolution(res)
		if err != nil {
			return nil, fmt.Errorf("--resolve %q: %w", kv, err)
		}
		out[path] = act
	}
	return out, nil
}

func actionStyle(a action.Action) lipgloss.Style {
	switch a {
	case action.NoAction:
		return gray
	case action.CopyFileToA, action.CopyFileToB, action.CreateFolderInA, action.CreateFolderInB:
		return green
	case action.DeleteFileFromA, action.DeleteFileFromB, action.DeleteFolderFromA, action.DeleteFolderFromB:
		return red
	}
	return yellow
}
