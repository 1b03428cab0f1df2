package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/stylus-audio/stylus/internal/models"
	"github.com/stylus-audio/stylus/internal/shared"
)

// SyncRunRepository implements [models.Repository] for [models.SyncRun] persistence.
type SyncRunRepository struct {
	db *sql.DB
}

// NewSyncRunRepository creates a new [SyncRunRepository] with the given database connection
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

const syncRunColumns = `id, sequence, user_id, kind, status, total, processed, added,
	updated, removed, current_page, per_page, last_error, retry_count, started_at,
	completed_at, created_at, updated_at, deleted_at`

// Create inserts a new sync run into the database with generated ID and sequence
func (r *SyncRunRepository) Create(run *models.SyncRun) error {
	sequence, err := NextSequence(r.db, "sync_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	run.SetID(id)
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sync_runs (id, sequence, user_id, kind, status, total, processed, added,
			updated, removed, current_page, per_page, last_error, retry_count, started_at,
			completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, run.UserID(), string(run.Kind()), run.Status(),
		run.Total(), run.Processed(), run.Added(), run.Updated(), run.Removed(),
		run.CurrentPage(), run.PerPage(), run.LastError(), run.RetryCount(),
		nullableTime(run.StartedAt()), nullableTime(run.CompletedAt()),
		run.CreatedAt(), run.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}

	return nil
}

// Get retrieves a sync run by ID, excluding soft-deleted runs
func (r *SyncRunRepository) Get(id string) (*models.SyncRun, error) {
	query := fmt.Sprintf(`SELECT %s FROM sync_runs WHERE id = ? AND deleted_at IS NULL`, syncRunColumns)

	run, err := scanSyncRun(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sync run not found: %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sync run: %w", err)
	}

	return run, nil
}

// Update persists the current state of a sync run.
//
// The engine calls this after every processed record, so the cursor on disk is never
// more than one record behind the remote position.
func (r *SyncRunRepository) Update(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE sync_runs
		SET status = ?, total = ?, processed = ?, added = ?, updated = ?, removed = ?,
			current_page = ?, per_page = ?, last_error = ?, retry_count = ?,
			started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, run.Status(), run.Total(), run.Processed(), run.Added(),
		run.Updated(), run.Removed(), run.CurrentPage(), run.PerPage(), run.LastError(),
		run.RetryCount(), nullableTime(run.StartedAt()), nullableTime(run.CompletedAt()),
		now, run.ID())
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync run not found or already deleted: %s", run.ID())
	}

	return nil
}

// Delete soft-deletes a sync run by ID
func (r *SyncRunRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE sync_runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete sync run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync run not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all sync runs matching the given criteria, most recent first.
//
// Supported criteria: user_id (string), kind (models.ResourceKind or string),
// status (string), limit (int).
func (r *SyncRunRepository) List(criteria map[string]any) ([]*models.SyncRun, error) {
	query := fmt.Sprintf(`SELECT %s FROM sync_runs WHERE deleted_at IS NULL`, syncRunColumns)

	args := []any{}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}
	switch kind := criteria["kind"].(type) {
	case models.ResourceKind:
		query += " AND kind = ?"
		args = append(args, string(kind))
	case string:
		if kind != "" {
			query += " AND kind = ?"
			args = append(args, kind)
		}
	}
	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// Latest returns the most recent sync run for the user and resource kind, or
// shared.ErrNeverSynced when no run exists.
func (r *SyncRunRepository) Latest(userID string, kind models.ResourceKind) (*models.SyncRun, error) {
	runs, err := r.List(map[string]any{"user_id": userID, "kind": kind, "limit": 1})
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, shared.ErrNeverSynced
	}
	return runs[0], nil
}

// Active returns the pending, running or paused run for the user and resource kind,
// or shared.ErrNoActiveSync when none occupies the slot.
func (r *SyncRunRepository) Active(userID string, kind models.ResourceKind) (*models.SyncRun, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM sync_runs
		WHERE user_id = ? AND kind = ? AND status IN (?, ?, ?) AND deleted_at IS NULL
		ORDER BY sequence DESC
		LIMIT 1
	`, syncRunColumns)

	run, err := scanSyncRun(r.db.QueryRow(query, userID, string(kind), models.SyncPending, models.SyncRunning, models.SyncPaused))
	if err == sql.ErrNoRows {
		return nil, shared.ErrNoActiveSync
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query active sync run: %w", err)
	}

	return run, nil
}

// GetOrCreateActive returns the run occupying the single running-or-paused slot for
// the (user, kind) pair, creating a fresh pending run when the slot is empty.
//
// This is what makes resume work: a paused run is handed back with its cursor intact
// instead of a new run starting over from page one.
func (r *SyncRunRepository) GetOrCreateActive(userID string, kind models.ResourceKind, perPage int) (*models.SyncRun, error) {
	run, err := r.Active(userID, kind)
	if err == nil {
		return run, nil
	}
	if err != shared.ErrNoActiveSync {
		return nil, err
	}

	run = models.NewSyncRun(0, userID, kind)
	if perPage > 0 {
		run.SetPerPage(perPage)
	}
	if err := r.Create(run); err != nil {
		return nil, err
	}

	return run, nil
}

func scanSyncRun(row scanner) (*models.SyncRun, error) {
	var (
		id          string
		sequence    int
		userID      string
		kind        string
		status      string
		total       int
		processed   int
		added       int
		updated     int
		removed     int
		currentPage int
		perPage     int
		lastError   sql.NullString
		retryCount  int
		startedAt   sql.NullTime
		completedAt sql.NullTime
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := row.Scan(&id, &sequence, &userID, &kind, &status, &total, &processed, &added,
		&updated, &removed, &currentPage, &perPage, &lastError, &retryCount,
		&startedAt, &completedAt, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	run := models.NewSyncRun(sequence, userID, models.ResourceKind(kind))
	run.SetID(id)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	run.SetStatus(status)
	run.SetTotal(total)
	run.SetProcessed(processed)
	run.SetAdded(added)
	run.SetUpdated(updated)
	run.SetRemoved(removed)
	run.SetCurrentPage(currentPage)
	run.SetPerPage(perPage)
	run.SetLastError(lastError.String)
	run.SetRetryCount(retryCount)
	if startedAt.Valid {
		run.SetStartedAt(&startedAt.Time)
	}
	if completedAt.Valid {
		run.SetCompletedAt(&completedAt.Time)
	}
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}
