package tasks

import (
	"fmt"
	"time"

	"github.com/stylus-audio/stylus/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Records processed so far
	Total   int    // Total records reported by the remote
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchListing Phase = iota
	ApplyRecord
	Reconcile
	Paused
	Completed
	Failed
)

func (p Phase) String() string {
	switch p {
	case FetchListing:
		return "fetch_listing"
	case ApplyRecord:
		return "apply_record"
	case Reconcile:
		return "reconcile"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// recordNoun returns the display noun for a resource kind.
func recordNoun(kind models.ResourceKind) string {
	if kind == models.KindInventory {
		return "listings"
	}
	return "releases"
}

func fetchListingUpdate(kind models.ResourceKind, page int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchListing,
		Message: fmt.Sprintf("Fetching %s page %d...", kind, page),
	}
}

func syncingUpdate(kind models.ResourceKind, processed, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ApplyRecord,
		Step:    processed,
		Total:   total,
		Message: fmt.Sprintf("Syncing... %d of %d %s", processed, total, recordNoun(kind)),
	}
}

func reconcileUpdate(kind models.ResourceKind, removed int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reconcile,
		Message: fmt.Sprintf("Marked %d %s removed", removed, recordNoun(kind)),
	}
}

func pausedUpdate(kind models.ResourceKind, page int, retryAfter time.Duration) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Paused,
		Message: fmt.Sprintf("Rate limited on %s page %d, pausing for %s", kind, page, retryAfter),
		Data:    retryAfter,
	}
}

func completedUpdate(run *models.SyncRun) ProgressUpdate {
	return ProgressUpdate{
		Phase: Completed,
		Step:  run.Processed(),
		Total: run.Total(),
		Message: fmt.Sprintf("Synced %d %s (%d added, %d updated, %d removed)",
			run.Processed(), recordNoun(run.Kind()), run.Added(), run.Updated(), run.Removed()),
		Data: run,
	}
}

func failedUpdate(kind models.ResourceKind, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Failed,
		Message: fmt.Sprintf("%s sync failed: %v", kind, err),
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}
