package tasks

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	"github.com/stylus-audio/stylus/internal/discogs"
	"github.com/stylus-audio/stylus/internal/models"
	"github.com/stylus-audio/stylus/internal/repositories"
)

// Outcome classifies what Apply did with a record.
type Outcome int

const (
	OutcomeCreated Outcome = iota
	OutcomeUpdated
	OutcomeUnchanged
)

// Source yields the records of a paginated remote listing one at a time.
//
// Page reports the page the current record came from (the resume cursor), Processed
// the number of records yielded so far including pages skipped on resume, and Total
// the overall record count reported by the remote.
type Source[R any] interface {
	Next(ctx context.Context) (R, bool, error)
	Page() int
	Processed() int
	Total() int
}

// SourceFactory builds a Source positioned at startPage. The engine calls it once
// per Run so a resumed sync picks up at the persisted cursor.
type SourceFactory[R any] func(startPage, perPage int) Source[R]

// Handler applies remote records to local storage.
type Handler[R any] interface {
	// Kind identifies the resource this handler syncs.
	Kind() models.ResourceKind

	// Key returns the stable remote identity of a record.
	Key(record R) int64

	// Apply upserts one record into local storage.
	Apply(ctx context.Context, record R) (Outcome, error)

	// Reconcile soft-removes local records whose key is absent from seen.
	// Called once after a full listing pass; returns the number removed.
	Reconcile(ctx context.Context, seen map[int64]struct{}) (int, error)
}

// runState is the in-memory side of an active run: the remote keys observed so far
// and the page the observation started at.
//
// Reconciliation needs a complete picture of the remote listing. When a run resumes
// inside the same process the accumulated state is still here and reconciliation
// proceeds; when a process starts on a mid-listing cursor the earlier pages were
// observed by a previous process, so reconciliation is skipped and deferred to the
// next full pass rather than risk removing records that are still present remotely.
type runState struct {
	seen        map[int64]struct{}
	coveredFrom int
}

// Engine drives one resource sync for one user: it pulls records from a Source,
// funnels them through a Handler, and checkpoints progress on a SyncRun after every
// record.
type Engine[R any] struct {
	runs    *repositories.SyncRunRepository
	handler Handler[R]
	source  SourceFactory[R]
	logger  *log.Logger

	userID  string
	perPage int

	states map[string]*runState
}

// NewEngine creates an engine for the handler's resource kind.
func NewEngine[R any](runs *repositories.SyncRunRepository, handler Handler[R], source SourceFactory[R], userID string, perPage int, logger *log.Logger) *Engine[R] {
	if perPage <= 0 {
		perPage = 100
	}
	return &Engine[R]{
		runs:    runs,
		handler: handler,
		source:  source,
		logger:  logger,
		userID:  userID,
		perPage: perPage,
		states:  make(map[string]*runState),
	}
}

// Kind returns the resource kind this engine syncs.
func (e *Engine[R]) Kind() models.ResourceKind { return e.handler.Kind() }

// Run executes one sync pass, resuming the active run's cursor when one exists.
//
// The returned SyncRun reflects the final state of the pass:
//   - completed: the listing was walked to the end (and reconciled when coverage
//     was complete)
//   - paused: the remote rate limited us (the error is a *discogs.RateLimitError
//     carrying the pause duration) or ctx was cancelled; the cursor is persisted
//     and a later Run continues from it
//   - failed: credentials were rejected or storage broke; retryable via --resume
//
// Per-record failures other than the above are recorded on the run and skipped.
func (e *Engine[R]) Run(ctx context.Context, progress chan<- ProgressUpdate) (*models.SyncRun, error) {
	kind := e.handler.Kind()

	run, err := e.runs.GetOrCreateActive(e.userID, kind, e.perPage)
	if err != nil {
		return nil, err
	}

	startPage := run.CurrentPage()
	state := e.states[run.ID()]
	if state == nil {
		state = &runState{seen: make(map[int64]struct{}), coveredFrom: startPage}
		e.states[run.ID()] = state
	}

	run.Start()
	if err := e.runs.Update(run); err != nil {
		return run, err
	}

	e.logger.Info("sync started", "kind", kind, "page", startPage, "per_page", run.PerPage())
	sendProgress(progress, fetchListingUpdate(kind, startPage))

	src := e.source(startPage, run.PerPage())

	for {
		select {
		case <-ctx.Done():
			return e.pause(run, src, progress, ctx.Err())
		default:
		}

		record, ok, err := src.Next(ctx)
		if err != nil {
			return e.classify(run, src, progress, err)
		}
		if !ok {
			break
		}

		// The record exists remotely regardless of whether applying it succeeds,
		// so it must never be reconciled away.
		state.seen[e.handler.Key(record)] = struct{}{}

		run.SetTotal(src.Total())
		run.SetCurrentPage(src.Page())

		outcome, err := e.handler.Apply(ctx, record)
		if err != nil {
			var rateErr *discogs.RateLimitError
			var authErr *discogs.AuthError
			switch {
			case errors.As(err, &rateErr), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return e.classify(run, src, progress, err)
			case errors.As(err, &authErr):
				return e.fail(run, progress, err)
			default:
				e.logger.Warn("record skipped", "kind", kind, "key", e.handler.Key(record), "error", err)
				run.SetLastError(err.Error())
			}
		} else {
			switch outcome {
			case OutcomeCreated:
				run.AddCreated()
			case OutcomeUpdated:
				run.AddUpdated()
			}
		}

		run.SetProcessed(src.Processed())
		if err := e.runs.Update(run); err != nil {
			return run, err
		}

		sendProgress(progress, syncingUpdate(kind, run.Processed(), run.Total()))
	}

	if state.coveredFrom == 1 {
		removed, err := e.handler.Reconcile(ctx, state.seen)
		if err != nil {
			return e.fail(run, progress, err)
		}
		run.AddRemoved(removed)
		sendProgress(progress, reconcileUpdate(kind, removed))
	} else {
		e.logger.Warn("skipping removal reconciliation, listing coverage incomplete",
			"kind", kind, "covered_from", state.coveredFrom)
	}

	run.Complete()
	if err := e.runs.Update(run); err != nil {
		return run, err
	}
	delete(e.states, run.ID())

	e.logger.Info("sync completed", "kind", kind,
		"processed", run.Processed(), "added", run.Added(), "updated", run.Updated(), "removed", run.Removed())
	sendProgress(progress, completedUpdate(run))

	return run, nil
}

// classify routes a fetch or apply error to pause or fail.
func (e *Engine[R]) classify(run *models.SyncRun, src Source[R], progress chan<- ProgressUpdate, err error) (*models.SyncRun, error) {
	var rateErr *discogs.RateLimitError
	if errors.As(err, &rateErr) {
		run.SetCurrentPage(src.Page())
		run.SetLastError(err.Error())
		sendProgress(progress, pausedUpdate(e.handler.Kind(), src.Page(), rateErr.RetryAfter))
		return e.pause(run, src, progress, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return e.pause(run, src, progress, err)
	}

	return e.fail(run, progress, err)
}

// pause parks the run with its cursor intact and hands the cause back to the caller.
func (e *Engine[R]) pause(run *models.SyncRun, src Source[R], progress chan<- ProgressUpdate, cause error) (*models.SyncRun, error) {
	run.SetCurrentPage(src.Page())
	run.Pause()
	if err := e.runs.Update(run); err != nil {
		return run, err
	}

	e.logger.Info("sync paused", "kind", e.handler.Kind(), "page", run.CurrentPage(), "cause", cause)
	return run, cause
}

func (e *Engine[R]) fail(run *models.SyncRun, progress chan<- ProgressUpdate, cause error) (*models.SyncRun, error) {
	run.Fail(cause.Error())
	if err := e.runs.Update(run); err != nil {
		return run, err
	}

	e.logger.Error("sync failed", "kind", e.handler.Kind(), "error", cause)
	sendProgress(progress, failedUpdate(e.handler.Kind(), cause))
	return run, cause
}
