package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edutenorio/FolderTracker/internal/logging"
	"github.com/edutenorio/FolderTracker/internal/project"
)

var (
	home, _            = os.UserHomeDir()
	defaultProjectsDir = filepath.Join(home, ".foldersync", "projects")
)

// app carries the process-wide settings shared by every command.
type app struct {
	v      *viper.Viper
	log    *slog.Logger
	closer io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), log: slog.New(slog.DiscardHandler), closer: io.NopCloser(nil)}

	root := &cobra.Command{
		Use:           "foldersync",
		Short:         "Two-way folder synchronization with conflict detection",
		Version:       version,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return a.load(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.closer.Close()
		},
	}

	root.PersistentFlags().SortFlags = false
	root.PersistentFlags().StringP("projects-dir", "p", defaultProjectsDir, "Directory holding project files")
	root.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "text", "Log format: text or json")
	root.PersistentFlags().String("log-file", "", "Also log to this file, rotated")
	root.PersistentFlags().Bool("debug", false, "Shorthand for --log-level debug")

	root.AddCommand(
		newProjectCmd(a),
		newStatusCmd(a),
		newStateCmd(a),
		newSyncCmd(a),
		newHistoryCmd(a),
		newScheduleCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	flags := cmd.Flags()
	a.v.BindPFlag("projects_dir", flags.Lookup("projects-dir"))
	a.v.BindPFlag("log_level", flags.Lookup("log-level"))
	a.v.BindPFlag("log_format", flags.Lookup("log-format"))
	a.v.BindPFlag("log_file", flags.Lookup("log-file"))
	a.v.BindPFlag("debug", flags.Lookup("debug"))

	a.v.SetEnvPrefix("FOLDERSYNC")
	a.v.AutomaticEnv()
	// Names understood by older installs.
	a.v.BindEnv("projects_dir", "FOLDERSYNC_PROJECTS_DIR", "PROJECTS_DIR")
	a.v.BindEnv("debug", "FOLDERSYNC_DEBUG", "DEBUG")

	return a.setupLogging(logging.Options{
		Level:  a.level(),
		Format: a.v.GetString("log_format"),
		File:   a.v.GetString("log_file"),
		Stdout: cmd.ErrOrStderr(),
	})
}

func (a *app) level() string {
	if a.v.GetBool("debug") {
		return "debug"
	}
	return a.v.GetString("log_level")
}

func (a *app) setupLogging(opts logging.Options) error {
	logger, closer, err := logging.Setup(opts)
	if err != nil {
		return err
	}
	_ = a.closer.Close()
	a.log, a.closer = logger, closer
	return nil
}

func (a *app) projectsDir() string {
	return a.v.GetString("projects_dir")
}

func (a *app) manager() *project.Manager {
	return project.NewManager(a.projectsDir(), a.log)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, red.Render("Error:"), err)
		os.Exit(1)
	}
}
