package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/stylus-audio/stylus/internal/models"
	"github.com/stylus-audio/stylus/internal/shared"
)

// TrackRepository implements [models.Repository] for [models.Track] persistence.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new [TrackRepository] with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

const trackColumns = `id, sequence, release_id, position, title, duration, bpm,
	musical_key, camelot, energy, is_playable, notes, created_at, updated_at, deleted_at`

// Create inserts a new track into the database with generated ID and sequence
func (r *TrackRepository) Create(track *models.Track) error {
	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	track.SetID(id)
	track.SetSequence(sequence)

	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO tracks (id, sequence, release_id, position, title, duration, bpm,
			musical_key, camelot, energy, is_playable, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, track.ReleaseID(), track.Position(),
		track.Title(), track.Duration(), nullableInt(track.BPM()), track.MusicalKey(),
		track.Camelot(), nullableInt(track.Energy()), track.Playable(), track.Notes(),
		track.CreatedAt(), track.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a track by ID, excluding soft-deleted tracks
func (r *TrackRepository) Get(id string) (*models.Track, error) {
	query := fmt.Sprintf(`SELECT %s FROM tracks WHERE id = ? AND deleted_at IS NULL`, trackColumns)

	track, err := scanTrack(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("track not found: %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query track: %w", err)
	}

	return track, nil
}

// Update modifies an existing track in the database
func (r *TrackRepository) Update(track *models.Track) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	track.SetUpdatedAt(now)

	query := `
		UPDATE tracks
		SET title = ?, duration = ?, bpm = ?, musical_key = ?, camelot = ?, energy = ?,
			is_playable = ?, notes = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, track.Title(), track.Duration(), nullableInt(track.BPM()),
		track.MusicalKey(), track.Camelot(), nullableInt(track.Energy()), track.Playable(),
		track.Notes(), now, track.ID())
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track not found or already deleted: %s", track.ID())
	}

	return nil
}

// Delete soft-deletes a track by ID
func (r *TrackRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE tracks
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all tracks matching the given criteria, excluding soft-deleted tracks.
//
// Supported criteria: release_id (string), playable (bool).
func (r *TrackRepository) List(criteria map[string]any) ([]*models.Track, error) {
	query := fmt.Sprintf(`SELECT %s FROM tracks WHERE deleted_at IS NULL`, trackColumns)

	args := []any{}

	if releaseID, ok := criteria["release_id"].(string); ok && releaseID != "" {
		query += " AND release_id = ?"
		args = append(args, releaseID)
	}
	if playable, ok := criteria["playable"].(bool); ok {
		query += " AND is_playable = ?"
		args = append(args, playable)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// ListByRelease retrieves all tracks of a release in insertion order.
func (r *TrackRepository) ListByRelease(releaseID string) ([]*models.Track, error) {
	return r.List(map[string]any{"release_id": releaseID})
}

func scanTrack(row scanner) (*models.Track, error) {
	var (
		id         string
		sequence   int
		releaseID  string
		position   string
		title      string
		duration   sql.NullString
		bpm        sql.NullInt64
		musicalKey sql.NullString
		camelot    sql.NullString
		energy     sql.NullInt64
		isPlayable bool
		notes      sql.NullString
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &releaseID, &position, &title, &duration, &bpm,
		&musicalKey, &camelot, &energy, &isPlayable, &notes, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	track := models.NewTrack(sequence, releaseID, position, title, duration.String)
	track.SetID(id)
	track.SetCreatedAt(createdAt)
	track.SetUpdatedAt(updatedAt)
	track.SetBPM(int(bpm.Int64))
	track.SetMusicalKey(musicalKey.String)
	track.SetCamelot(camelot.String)
	track.SetEnergy(int(energy.Int64))
	track.SetPlayable(isPlayable)
	track.SetNotes(notes.String)
	if deletedAt.Valid {
		track.SetDeletedAt(&deletedAt.Time)
	}

	return track, nil
}

// nullableInt stores zero-valued user metadata as NULL so the CHECK ranges hold.
func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}
