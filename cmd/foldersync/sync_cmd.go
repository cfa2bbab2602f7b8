package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edutenorio/FolderTracker/internal/project"
)

var errSyncFailed = errors.New("sync finished with failures")

func newSyncCmd(a *app) *cobra.Command {
	var (
		resolve []string
		dryRun  bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "sync <project>",
		Short: "Reconcile both folders of a project",
		Long: `Scans both folders, plans against the last common state and applies the plan.

Conflicts are resolved with the project's onConflict policy unless overridden
per path, e.g. --resolve notes.txt=keep-a.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			overrides, err := parseResolutions(resolve)
			if err != nil {
				return err
			}

			p, err := a.openProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, p.Close()) }()

			res, err := p.Sync(cmd.Context(), project.SyncOptions{Overrides: overrides, DryRun: dryRun})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(w, newSyncOutput(p.Name(), res)); err != nil {
					return err
				}
			} else {
				renderWarnings(w, p.Engine().ScanWarnings())
				renderPlan(w, res.Plan, false)
				if res.Result != nil {
					renderReport(w, res.Result)
				}
			}

			if res.Result != nil && !res.Result.Report.OK() {
				return fmt.Errorf("%w: %d of %d paths", errSyncFailed,
					len(res.Result.Report.Failures()), len(res.Result.Report))
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&resolve, "resolve", "r", nil, "Resolve a conflict: path=keep-a|keep-b|keep-both (repeatable)")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Plan only")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the plan and outcomes as JSON")
	return cmd
}
