package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/edutenorio/FolderTracker/internal/config"
)

func newProjectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Manage sync projects",
	}
	cmd.AddCommand(
		newProjectCreateCmd(a),
		newProjectListCmd(a),
		newProjectShowCmd(a),
		newProjectSaveAsCmd(a),
		newProjectSetFolderCmd(a),
	)
	return cmd
}

func newProjectCreateCmd(a *app) *cobra.Command {
	var onConflict, cron string
	var ignore []string

	cmd := &cobra.Command{
		Use:   "create <name> <folder-a> <folder-b>",
		Short: "Create a project pairing two folders",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			folderA, err := filepath.Abs(args[1])
			if err != nil {
				return err
			}
			folderB, err := filepath.Abs(args[2])
			if err != nil {
				return err
			}

			cfg := config.Default(args[0], folderA, folderB)
			cfg.Sync.OnConflict = onConflict
			cfg.Sync.Ignore = ignore
			cfg.Schedule.Cron = cron
			if err := cfg.Validate(); err != nil {
				return err
			}

			p, err := a.manager().CreateFrom(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", green.Render("created"), p.Path)
			return nil
		},
	}
	cmd.Flags().StringVar(&onConflict, "on-conflict", "keep-both", "Default conflict resolution: keep-a, keep-b, keep-both")
	cmd.Flags().StringVar(&cron, "cron", "", "Schedule for the schedule command, e.g. \"@every 15m\"")
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "Glob of relative paths to leave alone (repeatable)")
	return cmd
}

func newProjectListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := a.manager().List()
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), gray.Render("no projects in "+a.projectsDir()))
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tFOLDER A\tFOLDER B\tSCHEDULE")
			for _, p := range projects {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name(), p.Config.FolderA, p.Config.FolderB, p.Config.Schedule.Cron)
			}
			return tw.Flush()
		},
	}
}

func newProjectShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a project's settings",
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

			w := cmd.OutOrStdout()
			cfg := p.Config
			fmt.Fprintf(w, "%s %s\n", bold.Render("name:       "), cfg.Name)
			fmt.Fprintf(w, "%s %s\n", bold.Render("file:       "), p.Path)
			fmt.Fprintf(w, "%s %s\n", bold.Render("folder A:   "), cfg.FolderA)
			fmt.Fprintf(w, "%s %s\n", bold.Render("folder B:   "), cfg.FolderB)
			fmt.Fprintf(w, "%s %s (%d snapshots)\n", bold.Render("history:    "), p.HistoryPath(), h.Len())
			fmt.Fprintf(w, "%s %s\n", bold.Render("on conflict:"), orDefault(cfg.Sync.OnConflict, "keep-both"))
			if len(cfg.Sync.Ignore) > 0 {
				fmt.Fprintf(w, "%s %s\n", bold.Render("ignore:     "), strings.Join(cfg.Sync.Ignore, ", "))
			}
			fmt.Fprintf(w, "%s %s\n", bold.Render("schedule:   "), orDefault(cfg.Schedule.Cron, "-"))
			return nil
		},
	}
}

func newProjectSaveAsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save-as <name> <new-name>",
		Short: "Copy a project and its history under a new name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := a.manager()
			p, err := m.Get(args[0])
			if err != nil {
				return err
			}
			copied, err := m.SaveAs(cmd.Context(), p, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", green.Render("created"), copied.Path)
			return nil
		},
	}
}

func newProjectSetFolderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-folder <name> <a|b> <path>",
		Short: "Point one side of a project at another folder",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.manager().Get(args[0])
			if err != nil {
				return err
			}
			path, err := filepath.Abs(args[2])
			if err != nil {
				return err
			}
			switch strings.ToLower(args[1]) {
			case "a":
				p.Config.FolderA = path
			case "b":
				p.Config.FolderB = path
			default:
				return fmt.Errorf("unknown side %q, want a or b", args[1])
			}
			if err := p.Config.Validate(); err != nil {
				return err
			}
			if err := p.Config.Save(p.Path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
