package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/edutenorio/FolderTracker/internal/fs"
	"github.com/edutenorio/FolderTracker/internal/history"
	"github.com/edutenorio/FolderTracker/internal/retention"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and maintain a project's sync history",
	}
	cmd.AddCommand(
		newHistoryListCmd(a),
		newHistoryShowCmd(a),
		newHistoryExportCmd(a),
		newHistoryImportCmd(a),
		newHistoryTrimCmd(a),
	)
	return cmd
}

func newHistoryListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list <project>",
		Aliases: []string{"ls"},
		Short:   "List history snapshots, oldest first",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.manager().Get(args[0])
			if err != nil {
				return err
			}
			h, err := p.LoadHistory(cmd.Context())
			if err != nil {
				return err
			}
			if h.Len() == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), gray.Render("no snapshots yet"))
				return nil
			}
			renderHistory(cmd.OutOrStdout(), h, time.Now())
			return nil
		},
	}
}

func newHistoryShowCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <project> [key]",
		Short: "Print one snapshot, the latest by default",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.manager().Get(args[0])
			if err != nil {
				return err
			}
			h, err := p.LoadHistory(cmd.Context())
			if err != nil {
				return err
			}

			key, state, ok := h.Latest()
			if len(args) == 2 {
				key = args[1]
				state, ok = h.Get(key)
			}
			if !ok {
				return fmt.Errorf("no snapshot %q in %s", key, p.Name())
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), state)
			}
			fmt.Fprintln(cmd.OutOrStdout(), bold.Render(key))
			renderFolderState(cmd.OutOrStdout(), state)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newHistoryExportCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export <project>",
		Short: "Write the whole history as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.manager().Get(args[0])
			if err != nil {
				return err
			}
			h, err := p.LoadHistory(cmd.Context())
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(h, "", "  ")
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			if err := fs.New().WriteFile(out, data); err != nil {
				return err
			}
			a.log.Info("history exported", "project", p.Name(), "snapshots", h.Len(), "path", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "File to write, stdout when empty")
	return cmd
}

func newHistoryImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <project> <file|->",
		Short: "Replace the history with a JSON export",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			data, err := readInput(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}
			h := history.New()
			if err := json.Unmarshal(data, h); err != nil {
				return fmt.Errorf("parsing %s: %w", args[1], err)
			}

			p, err := a.openProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, p.Close()) }()

			if err := p.Store().Replace(cmd.Context(), h); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d snapshots\n", green.Render("imported"), h.Len())
			return nil
		},
	}
}

func newHistoryTrimCmd(a *app) *cobra.Command {
	var (
		keep   int
		maxAge time.Duration
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "trim <project>",
		Short: "Delete old snapshots; the latest one is always kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if keep <= 0 && maxAge <= 0 {
				return errors.New("trim needs --keep or --max-age")
			}

			p, err := a.openProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, p.Close()) }()

			ret := retention.New(retention.Rule{Keep: keep, MaxAge: maxAge}, a.log)
			h := p.Engine().History()

			var removed []string
			if dryRun {
				removed = ret.Expired(h)
			} else if removed, err = ret.Apply(cmd.Context(), h, p.Store()); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, key := range removed {
				fmt.Fprintf(w, "  %s %s\n", red.Render("remove"), key)
			}
			kept := h.Len()
			if dryRun {
				kept -= len(removed)
			}
			fmt.Fprintf(w, "%d removed, %d kept\n", len(removed), kept)
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 0, "Keep the newest N snapshots")
	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Delete snapshots older than this, e.g. 720h")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Only list what would be removed")
	return cmd
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return fs.New().ReadFile(name)
}
