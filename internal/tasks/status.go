package tasks

import (
	"errors"
	"fmt"
	"time"

	"github.com/stylus-audio/stylus/internal/models"
	"github.com/stylus-audio/stylus/internal/repositories"
	"github.com/stylus-audio/stylus/internal/shared"
)

// Status summarizes the latest sync run of one resource kind for display.
type Status struct {
	Kind    models.ResourceKind
	Run     *models.SyncRun // nil when the resource was never synced
	Message string
}

// BuildStatus assembles the display status for the user's latest run of the kind.
func BuildStatus(runs *repositories.SyncRunRepository, userID string, kind models.ResourceKind) (*Status, error) {
	run, err := runs.Latest(userID, kind)
	if errors.Is(err, shared.ErrNeverSynced) {
		return &Status{Kind: kind, Message: fmt.Sprintf("%s: never synced", kind)}, nil
	}
	if err != nil {
		return nil, err
	}

	return &Status{Kind: kind, Run: run, Message: statusMessage(run)}, nil
}

func statusMessage(run *models.SyncRun) string {
	noun := recordNoun(run.Kind())

	switch run.Status() {
	case models.SyncPending:
		return fmt.Sprintf("%s: sync queued", run.Kind())
	case models.SyncRunning:
		if run.Total() > 0 {
			return fmt.Sprintf("%s: syncing... %d of %d %s (%.0f%%)",
				run.Kind(), run.Processed(), run.Total(), noun, run.ProgressPercent())
		}
		return fmt.Sprintf("%s: syncing...", run.Kind())
	case models.SyncPaused:
		return fmt.Sprintf("%s: paused at page %d, %d of %d %s synced. Resume with --resume",
			run.Kind(), run.CurrentPage(), run.Processed(), run.Total(), noun)
	case models.SyncCompleted:
		return fmt.Sprintf("%s: synced %s, %d %s (%d added, %d updated, %d removed)",
			run.Kind(), relativeTime(run.CompletedAt()), run.Processed(), noun,
			run.Added(), run.Updated(), run.Removed())
	case models.SyncFailed:
		return fmt.Sprintf("%s: sync failed after %d %s: %s",
			run.Kind(), run.Processed(), noun, run.LastError())
	default:
		return string(run.Kind())
	}
}

// relativeTime renders a timestamp as a coarse "2 hours ago" style string.
func relativeTime(t *time.Time) string {
	if t == nil {
		return "at an unknown time"
	}

	elapsed := time.Since(*t)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(elapsed.Minutes()))
	case elapsed < 48*time.Hour:
		return fmt.Sprintf("%d hours ago", int(elapsed.Hours()))
	default:
		return fmt.Sprintf("%d days ago", int(elapsed.Hours()/24))
	}
}

// History returns the most recent runs of the kind, newest first.
func History(runs *repositories.SyncRunRepository, userID string, kind models.ResourceKind, limit int) ([]*models.SyncRun, error) {
	if limit <= 0 {
		limit = 10
	}
	return runs.List(map[string]any{"user_id": userID, "kind": kind, "limit": limit})
}
