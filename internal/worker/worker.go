// Package worker runs sync jobs one at a time as they arrive in the mailbox.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/edutenorio/FolderTracker/internal/logging"
	"github.com/edutenorio/FolderTracker/internal/mailbox"
)

// RunFunc performs one sync for a job.
type RunFunc func(ctx context.Context, job Job) error

// Worker drains the mailbox. Jobs never overlap: a trigger arriving while a
// sync runs replaces any job already waiting and is picked up afterwards.
type Worker struct {
	mu   sync.RWMutex
	run  RunFunc
	log  logging.Logger
	mb   *mailbox.Mailbox[Job]
	runs int
}

// New creates a worker fed by mb.
func New(run RunFunc, log logging.Logger, mb *mailbox.Mailbox[Job]) *Worker {
	log = logging.OrNop(log)
	log.Debug("creating worker")
	return &Worker{run: run, log: log, mb: mb}
}

// Start runs the worker loop until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info("starting worker")
	go func() {
		<-ctx.Done()
		w.mb.Close()
	}()

	for {
		job, ok := w.mb.Take()
		if !ok || ctx.Err() != nil {
			w.log.Info("worker stopped")
			return
		}
		if err := w.Handle(ctx, job); err != nil {
			w.log.Error("worker: sync failed", "reason", job.Reason, "error", err)
		}
	}
}

// Handle runs a single job.
func (w *Worker) Handle(ctx context.Context, job Job) error {
	w.log.Debug("entering Worker.Handle()", "reason", job.Reason, "queued", job.Timestamp)

	w.mu.RLock()
	run := w.run
	w.mu.RUnlock()

	if err := run(ctx, job); err != nil {
		return fmt.Errorf("running %s sync: %w", job.Reason, err)
	}

	w.mu.Lock()
	w.runs++
	w.mu.Unlock()
	return nil
}

// UpdateRun swaps the function used for the next job, e.g. after the project
// file was reloaded.
func (w *Worker) UpdateRun(run RunFunc) {
	w.log.Debug("entering Worker.UpdateRun()")
	w.mu.Lock()
	w.run = run
	w.mu.Unlock()
}

// Runs counts the jobs that completed without error.
func (w *Worker) Runs() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.runs
}
