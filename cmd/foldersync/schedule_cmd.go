package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/edutenorio/FolderTracker/internal/logging"
	"github.com/edutenorio/FolderTracker/internal/mailbox"
	"github.com/edutenorio/FolderTracker/internal/project"
	"github.com/edutenorio/FolderTracker/internal/scheduler"
	"github.com/edutenorio/FolderTracker/internal/worker"
)

func newScheduleCmd(a *app) *cobra.Command {
	var cronSpec string

	cmd := &cobra.Command{
		Use:   "schedule <project>",
		Short: "Keep syncing a project on its cron schedule until interrupted",
		Long: `Runs one sync right away and then one per tick of the project's
schedule.cron. Ticks that arrive while a sync is running collapse into a
single follow-up run. SIGHUP reloads the project file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()

			found, err := a.manager().Get(args[0])
			if err != nil {
				return err
			}
			if err := a.applyProjectLogging(cmd, found.Config.Logging.Level, found.Config.Logging.Format, found.Config.Logging.File); err != nil {
				return err
			}

			p, err := a.openProject(ctx, args[0])
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, p.Close()) }()

			spec := cronSpec
			if spec == "" {
				spec = p.Config.Schedule.Cron
			}
			if spec == "" {
				return fmt.Errorf("project %s has no schedule.cron, pass --cron", p.Name())
			}

			// p is shared between the worker and the reload loop.
			var mu sync.Mutex
			run := func(ctx context.Context, job worker.Job) error {
				mu.Lock()
				defer mu.Unlock()
				return a.scheduledSync(ctx, p, job)
			}

			mb := mailbox.New[worker.Job]()
			w := worker.New(run, a.log, mb)
			sched, err := scheduler.New(spec, a.log, mb)
			if err != nil {
				return err
			}

			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)

			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case <-hup:
						mu.Lock()
						err := p.Reload()
						next := p.Config.Schedule.Cron
						mu.Unlock()
						if err != nil {
							a.log.Error("project reload failed", "project", p.Name(), "error", err)
							continue
						}
						if cronSpec == "" && next != "" {
							if err := sched.UpdateConfig(next); err != nil {
								a.log.Error("schedule reload failed", "error", err)
								continue
							}
						}
						a.log.Info("project reloaded", "project", p.Name(), "cron", sched.Spec())
					}
				}
			}()

			var wg sync.WaitGroup
			wg.Add(2)
			go func() { defer wg.Done(); w.Start(ctx) }()
			go func() { defer wg.Done(); sched.Start(ctx) }()

			sched.Trigger("startup")
			wg.Wait()

			a.log.Info("schedule stopped", "project", p.Name(), "runs", w.Runs())
			return nil
		},
	}
	cmd.Flags().StringVar(&cronSpec, "cron", "", "Override the project's schedule, e.g. \"@every 5m\"")
	return cmd
}

func (a *app) scheduledSync(ctx context.Context, p *project.Project, job worker.Job) error {
	res, err := p.Sync(ctx, project.SyncOptions{})
	if err != nil {
		return err
	}
	report := res.Result.Report
	a.log.Info("sync finished",
		"project", p.Name(),
		"reason", job.Reason,
		"key", res.Result.Key,
		"pending", res.Plan.Pending(),
		"conflicts", len(res.Plan.Conflicts()),
		"warnings", len(report.Warnings()),
		"failures", len(report.Failures()),
	)
	for _, o := range report.Failures() {
		a.log.Warn("sync action failed", "path", o.Path, "action", o.Action.String(), "error", o.Err)
	}
	if !report.OK() {
		return fmt.Errorf("%w: %d paths", errSyncFailed, len(report.Failures()))
	}
	return nil
}

// applyProjectLogging lets a project's logging section stand in for the
// global flags the user did not set.
func (a *app) applyProjectLogging(cmd *cobra.Command, level, format, file string) error {
	flags := cmd.Flags()
	opts := logging.Options{
		Level:  a.level(),
		Format: a.v.GetString("log_format"),
		File:   a.v.GetString("log_file"),
		Stdout: cmd.ErrOrStderr(),
	}
	changed := false
	if level != "" && !flags.Changed("log-level") && !a.v.GetBool("debug") {
		opts.Level, changed = level, true
	}
	if format != "" && !flags.Changed("log-format") {
		opts.Format, changed = format, true
	}
	if file != "" && !flags.Changed("log-file") {
		opts.File, changed = file, true
	}
	if !changed {
		return nil
	}
	return a.setupLogging(opts)
}
