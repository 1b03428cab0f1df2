package models

import (
	"fmt"
	"time"
)

// ResourceKind identifies which remote resource a sync run covers.
type ResourceKind string

const (
	KindCollection ResourceKind = "collection"
	KindInventory  ResourceKind = "inventory"
)

// SyncRun status values.
const (
	SyncPending   = "pending"
	SyncRunning   = "running"
	SyncPaused    = "paused"
	SyncCompleted = "completed"
	SyncFailed    = "failed"
)

// SyncRun tracks the progress of one sync attempt for a (user, resource kind) pair.
//
// The cursor (currentPage, perPage) is enough to resume pagination exactly where a
// paused or failed run stopped. At most one run per pair may be pending, running or
// paused at a time; SyncRunRepository.GetOrCreateActive enforces this.
type SyncRun struct {
	base
	userID string
	kind   ResourceKind

	status    string
	total     int
	processed int
	added     int
	updated   int
	removed   int

	// Pagination cursor (for resuming)
	currentPage int
	perPage     int

	lastError  string
	retryCount int

	startedAt   *time.Time
	completedAt *time.Time
}

// NewSyncRun creates a pending run for the given user and resource kind.
func NewSyncRun(sequence int, userID string, kind ResourceKind) *SyncRun {
	return &SyncRun{
		base:        newBase(sequence),
		userID:      userID,
		kind:        kind,
		status:      SyncPending,
		currentPage: 1,
		perPage:     100,
	}
}

func (s *SyncRun) UserID() string     { return s.userID }
func (s *SyncRun) Kind() ResourceKind { return s.kind }
func (s *SyncRun) Status() string     { return s.status }
func (s *SyncRun) SetStatus(v string) { s.status = v }

func (s *SyncRun) Total() int        { return s.total }
func (s *SyncRun) SetTotal(v int)    { s.total = v }
func (s *SyncRun) Processed() int    { return s.processed }
func (s *SyncRun) SetProcessed(v int) { s.processed = v }
func (s *SyncRun) Added() int        { return s.added }
func (s *SyncRun) AddCreated()       { s.added++ }
func (s *SyncRun) SetAdded(v int)    { s.added = v }
func (s *SyncRun) Updated() int      { return s.updated }
func (s *SyncRun) AddUpdated()       { s.updated++ }
func (s *SyncRun) SetUpdated(v int)  { s.updated = v }
func (s *SyncRun) Removed() int      { return s.removed }
func (s *SyncRun) AddRemoved(n int)  { s.removed += n }
func (s *SyncRun) SetRemoved(v int)  { s.removed = v }

func (s *SyncRun) CurrentPage() int     { return s.currentPage }
func (s *SyncRun) SetCurrentPage(p int) { s.currentPage = p }
func (s *SyncRun) PerPage() int         { return s.perPage }
func (s *SyncRun) SetPerPage(p int)     { s.perPage = p }

func (s *SyncRun) LastError() string     { return s.lastError }
func (s *SyncRun) SetLastError(v string) { s.lastError = v }
func (s *SyncRun) RetryCount() int       { return s.retryCount }
func (s *SyncRun) SetRetryCount(v int)   { s.retryCount = v }

func (s *SyncRun) StartedAt() *time.Time      { return s.startedAt }
func (s *SyncRun) SetStartedAt(t *time.Time)  { s.startedAt = t }
func (s *SyncRun) CompletedAt() *time.Time    { return s.completedAt }
func (s *SyncRun) SetCompletedAt(t *time.Time) { s.completedAt = t }

// ProgressPercent calculates sync progress as a percentage; 0 when total is unknown.
func (s *SyncRun) ProgressPercent() float64 {
	if s.total == 0 {
		return 0
	}
	return float64(s.processed) / float64(s.total) * 100
}

// IsComplete reports whether the run finished successfully.
func (s *SyncRun) IsComplete() bool { return s.status == SyncCompleted }

// IsRunning reports whether the run is currently executing.
func (s *SyncRun) IsRunning() bool { return s.status == SyncRunning }

// IsActive reports whether the run occupies the single running-or-paused slot.
func (s *SyncRun) IsActive() bool { return s.status == SyncRunning || s.status == SyncPaused }

// CanResume reports whether the run may transition back to running.
func (s *SyncRun) CanResume() bool { return s.status == SyncPaused || s.status == SyncFailed }

// Start marks the run as running.
func (s *SyncRun) Start() {
	s.status = SyncRunning
	now := time.Now().UTC()
	if s.startedAt == nil {
		s.startedAt = &now
	}
}

// Pause parks the run so it can be resumed later, preserving the cursor.
func (s *SyncRun) Pause() {
	s.status = SyncPaused
}

// Complete marks the run as finished.
func (s *SyncRun) Complete() {
	s.status = SyncCompleted
	now := time.Now().UTC()
	s.completedAt = &now
}

// Fail marks the run as failed with the given error message.
func (s *SyncRun) Fail(reason string) {
	s.status = SyncFailed
	s.lastError = reason
	s.retryCount++
}

// Validate checks required fields and the status value.
func (s *SyncRun) Validate() error {
	if s.userID == "" {
		return fmt.Errorf("user ID is required")
	}
	if s.kind != KindCollection && s.kind != KindInventory {
		return fmt.Errorf("invalid resource kind: %s", s.kind)
	}
	switch s.status {
	case SyncPending, SyncRunning, SyncPaused, SyncCompleted, SyncFailed:
	default:
		return fmt.Errorf("invalid status: %s", s.status)
	}
	if s.currentPage < 1 {
		return fmt.Errorf("current page must be >= 1")
	}
	if s.perPage < 1 {
		return fmt.Errorf("per page must be >= 1")
	}
	return nil
}
