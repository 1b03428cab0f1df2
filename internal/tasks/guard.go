package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/stylus-audio/stylus/internal/models"
	"github.com/stylus-audio/stylus/internal/shared"
)

type guardKey struct {
	userID string
	kind   models.ResourceKind
}

// Handle tracks one background sync started through a Guard.
type Handle struct {
	userID string
	kind   models.ResourceKind
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	run *models.SyncRun
	err error
}

// Cancel requests cancellation of the underlying sync. The engine observes it at
// the next record checkpoint and pauses with the cursor persisted.
func (h *Handle) Cancel() { h.cancel() }

// Done returns a channel closed when the sync goroutine exits.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the sync finishes and returns its result.
func (h *Handle) Wait() (*models.SyncRun, error) {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.run, h.err
}

// Guard serializes sync execution: at most one sync per (user, resource kind) pair
// may run at a time, with no queueing. A second start attempt while the slot is
// occupied fails immediately with shared.ErrSyncAlreadyRunning.
type Guard struct {
	mu     sync.Mutex
	active map[guardKey]*Handle
}

// NewGuard creates an empty Guard.
func NewGuard() *Guard {
	return &Guard{active: make(map[guardKey]*Handle)}
}

// TryStart claims the (user, kind) slot and runs task in a goroutine.
//
// The slot is released when the task returns, whatever the outcome; a paused or
// failed run frees it so a resume can claim it again.
func (g *Guard) TryStart(ctx context.Context, userID string, kind models.ResourceKind, task func(ctx context.Context) (*models.SyncRun, error)) (*Handle, error) {
	key := guardKey{userID: userID, kind: kind}

	g.mu.Lock()
	if _, occupied := g.active[key]; occupied {
		g.mu.Unlock()
		return nil, fmt.Errorf("%w: %s sync for user %s", shared.ErrSyncAlreadyRunning, kind, userID)
	}

	taskCtx, cancel := context.WithCancel(ctx)
	handle := &Handle{
		userID: userID,
		kind:   kind,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	g.active[key] = handle
	g.mu.Unlock()

	go func() {
		defer cancel()

		run, err := task(taskCtx)

		handle.mu.Lock()
		handle.run = run
		handle.err = err
		handle.mu.Unlock()

		g.mu.Lock()
		delete(g.active, key)
		g.mu.Unlock()

		close(handle.done)
	}()

	return handle, nil
}

// Running reports whether the (user, kind) slot is occupied.
func (g *Guard) Running(userID string, kind models.ResourceKind) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, occupied := g.active[guardKey{userID: userID, kind: kind}]
	return occupied
}

// Cancel requests cancellation of the active sync for the pair, reporting whether
// one was running.
func (g *Guard) Cancel(userID string, kind models.ResourceKind) bool {
	g.mu.Lock()
	handle, occupied := g.active[guardKey{userID: userID, kind: kind}]
	g.mu.Unlock()

	if !occupied {
		return false
	}
	handle.Cancel()
	return true
}
