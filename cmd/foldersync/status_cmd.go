package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edutenorio/FolderTracker/internal/project"
)

func newStatusCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "status <project>",
		Short: "Show what a sync would do, without touching anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			p, err := a.openProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, p.Close()) }()

			res, err := p.Sync(cmd.Context(), project.SyncOptions{DryRun: true})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, cyan.Render(p.String()))
			renderWarnings(w, p.Engine().ScanWarnings())
			renderPlan(w, res.Plan, all)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Also list paths that need no action")
	return cmd
}

func newStateCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "state <project> <a|b|common|future>",
		Short: "Print a folder's current state, the last common state or the planned future state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			p, err := a.openProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, p.Close()) }()

			e := p.Engine()
			if isFutureSelector(args[1]) {
				if _, err := e.Prepare(cmd.Context()); err != nil {
					return err
				}
			}
			view, err := e.State(args[1])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch {
			case asJSON && view.Future != nil:
				return writeJSON(w, view.Future)
			case asJSON:
				return writeJSON(w, view.Folder)
			case view.Future != nil:
				renderFutureState(w, view.Future)
			default:
				renderFolderState(w, view.Folder)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func isFutureSelector(s string) bool {
	return len(s) > 0 && (s[0] == 'f' || s[0] == 'F')
}
