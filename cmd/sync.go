package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/stylus-audio/stylus/internal/discogs"
	"github.com/stylus-audio/stylus/internal/formatter"
	"github.com/stylus-audio/stylus/internal/models"
	"github.com/stylus-audio/stylus/internal/shared"
	"github.com/stylus-audio/stylus/internal/tasks"
	"github.com/urfave/cli/v3"
)

// RunSync executes one sync pass for the resource kind in the foreground.
//
// Interrupt signals cancel the sync context; the engine observes the cancellation
// at the next record checkpoint and parks the run with its cursor persisted, so a
// later invocation with --resume picks up where this one stopped.
func (r *Runner) RunSync(ctx context.Context, cmd *cli.Command, kind models.ResourceKind) error {
	resume := cmd.Bool("resume")
	wait := cmd.Bool("wait")

	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	user, err := r.currentUser(d)
	if err != nil {
		return err
	}

	if active, err := d.runs.Active(user.ID(), kind); err == nil {
		if active.Status() == models.SyncPaused && !resume {
			return fmt.Errorf("%w: a paused %s sync exists at page %d, rerun with --resume to continue it",
				shared.ErrInvalidFlag, kind, active.CurrentPage())
		}
	} else if !errors.Is(err, shared.ErrNoActiveSync) {
		return err
	}

	client, err := r.client()
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	progress := make(chan tasks.ProgressUpdate, 16)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	handle, err := r.guard.TryStart(runCtx, user.ID(), kind, r.syncTask(d, client, user, kind, wait, progress))
	if err != nil {
		return err
	}

	_, runErr := handle.Wait()
	close(progress)
	<-printed

	status, err := tasks.BuildStatus(d.runs, user.ID(), kind)
	if err != nil {
		return err
	}
	r.writePlain("%s\n", formatter.FormatStatus(status))

	// A pause is a planned stop, not a command failure.
	var rateErr *discogs.RateLimitError
	if errors.As(runErr, &rateErr) || errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

// syncTask builds the engine for the kind and wraps it as a guard task.
func (r *Runner) syncTask(d *deps, client *discogs.Client, user *models.User, kind models.ResourceKind, wait bool, progress chan<- tasks.ProgressUpdate) func(ctx context.Context) (*models.SyncRun, error) {
	logger := shared.WithLogger(r.logger, "user", user.Username(), "kind", kind)
	perPage := r.config.Sync.PerPage

	if kind == models.KindInventory {
		handler := tasks.NewInventoryHandler(d.listings, d.releases, user.ID(), logger)
		source := func(startPage, perPage int) tasks.Source[discogs.ListingItem] {
			return discogs.NewInventoryIterator(client, startPage, perPage)
		}
		engine := tasks.NewEngine[discogs.ListingItem](d.runs, handler, source, user.ID(), perPage, logger)
		return func(ctx context.Context) (*models.SyncRun, error) {
			if wait {
				return tasks.RunUntilComplete(ctx, engine, progress)
			}
			return engine.Run(ctx, progress)
		}
	}

	handler := tasks.NewCollectionHandler(client, d.releases, d.tracks, user.ID(), logger)
	source := func(startPage, perPage int) tasks.Source[discogs.CollectionItem] {
		return discogs.NewCollectionIterator(client, startPage, perPage)
	}
	engine := tasks.NewEngine[discogs.CollectionItem](d.runs, handler, source, user.ID(), perPage, logger)
	return func(ctx context.Context) (*models.SyncRun, error) {
		if wait {
			return tasks.RunUntilComplete(ctx, engine, progress)
		}
		return engine.Run(ctx, progress)
	}
}

// CancelSync stops the active sync for the kind.
//
// When the sync runs in this process the guard cancels it; otherwise the active
// run row left behind by a dead process is parked as paused so the next run
// resumes from its cursor instead of tripping over a phantom running state.
func (r *Runner) CancelSync(ctx context.Context, cmd *cli.Command, kind models.ResourceKind) error {
	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	user, err := r.currentUser(d)
	if err != nil {
		return err
	}

	if r.guard.Cancel(user.ID(), kind) {
		r.writePlain("cancellation requested for the running %s sync\n", kind)
		return nil
	}

	run, err := d.runs.Active(user.ID(), kind)
	if errors.Is(err, shared.ErrNoActiveSync) {
		r.writePlain("no active %s sync\n", kind)
		return nil
	}
	if err != nil {
		return err
	}

	run.Pause()
	if err := d.runs.Update(run); err != nil {
		return err
	}

	r.writePlain("parked %s sync at page %d, resume with 'stylus %s run --resume'\n",
		kind, run.CurrentPage(), syncCommandName(kind))
	return nil
}

// SyncStatus prints the state of the latest run for the kind.
func (r *Runner) SyncStatus(ctx context.Context, cmd *cli.Command, kind models.ResourceKind) error {
	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	user, err := r.currentUser(d)
	if err != nil {
		return err
	}

	status, err := tasks.BuildStatus(d.runs, user.ID(), kind)
	if err != nil {
		return err
	}

	return r.writePlain("%s\n", formatter.FormatStatus(status))
}

// SyncHistory prints recent runs for the kind, newest first.
func (r *Runner) SyncHistory(ctx context.Context, cmd *cli.Command, kind models.ResourceKind) error {
	limit := int(cmd.Int("limit"))

	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	user, err := r.currentUser(d)
	if err != nil {
		return err
	}

	runs, err := tasks.History(d.runs, user.ID(), kind, limit)
	if err != nil {
		return err
	}

	return r.writePlain("%s\n", formatter.FormatHistory(runs))
}

func syncCommandName(kind models.ResourceKind) string {
	if kind == models.KindInventory {
		return "inventory"
	}
	return "sync"
}
