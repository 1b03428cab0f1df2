package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/stylus-audio/stylus/internal/models"
	"github.com/stylus-audio/stylus/internal/shared"
)

// ReleaseRepository implements [models.Repository] for [models.Release] persistence.
type ReleaseRepository struct {
	db *sql.DB
}

// NewReleaseRepository creates a new [ReleaseRepository] with the given database connection
func NewReleaseRepository(db *sql.DB) *ReleaseRepository {
	return &ReleaseRepository{db: db}
}

const releaseColumns = `id, sequence, user_id, discogs_id, title, artist, label, year,
	cover_art_url, discogs_uri, notes, synced_at, removed_at, kept_after_removal,
	listing_id, condition, sleeve_condition, price, location, inventory_synced_at,
	created_at, updated_at, deleted_at`

// Create inserts a new release into the database with generated ID and sequence
func (r *ReleaseRepository) Create(release *models.Release) error {
	sequence, err := NextSequence(r.db, "releases")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	release.SetID(id)
	release.SetSequence(sequence)

	if err := release.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO releases (id, sequence, user_id, discogs_id, title, artist, label, year,
			cover_art_url, discogs_uri, notes, synced_at, removed_at, kept_after_removal,
			listing_id, condition, sleeve_condition, price, location, inventory_synced_at,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, release.UserID(), release.DiscogsID(),
		release.Title(), release.Artist(), release.Label(), release.Year(),
		release.CoverArtURL(), release.DiscogsURI(), release.Notes(),
		nullableTime(release.SyncedAt()), nullableTime(release.RemovedAt()), release.KeptAfterRemoval(),
		release.ListingID(), release.Condition(), release.SleeveCondition(),
		release.Price(), release.Location(), nullableTime(release.InventorySyncedAt()),
		release.CreatedAt(), release.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert release: %w", err)
	}

	return nil
}

// Get retrieves a release by ID, excluding soft-deleted releases
func (r *ReleaseRepository) Get(id string) (*models.Release, error) {
	query := fmt.Sprintf(`SELECT %s FROM releases WHERE id = ? AND deleted_at IS NULL`, releaseColumns)

	release, err := scanRelease(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("release not found: %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query release: %w", err)
	}

	return release, nil
}

// GetByDiscogsID retrieves a user's release by its Discogs release ID.
//
// This is the upsert identity for collection sync: the same remote release always
// maps back to the same local row.
func (r *ReleaseRepository) GetByDiscogsID(userID string, discogsID int64) (*models.Release, error) {
	query := fmt.Sprintf(`SELECT %s FROM releases WHERE user_id = ? AND discogs_id = ? AND deleted_at IS NULL`, releaseColumns)

	release, err := scanRelease(r.db.QueryRow(query, userID, discogsID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("release %d not found for user %s: %w", discogsID, userID, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query release: %w", err)
	}

	return release, nil
}

// Update modifies an existing release in the database
func (r *ReleaseRepository) Update(release *models.Release) error {
	if err := release.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	release.SetUpdatedAt(now)

	query := `
		UPDATE releases
		SET title = ?, artist = ?, label = ?, year = ?, cover_art_url = ?, discogs_uri = ?,
			notes = ?, synced_at = ?, removed_at = ?, kept_after_removal = ?,
			listing_id = ?, condition = ?, sleeve_condition = ?, price = ?, location = ?,
			inventory_synced_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, release.Title(), release.Artist(), release.Label(), release.Year(),
		release.CoverArtURL(), release.DiscogsURI(), release.Notes(),
		nullableTime(release.SyncedAt()), nullableTime(release.RemovedAt()), release.KeptAfterRemoval(),
		release.ListingID(), release.Condition(), release.SleeveCondition(),
		release.Price(), release.Location(), nullableTime(release.InventorySyncedAt()),
		now, release.ID())
	if err != nil {
		return fmt.Errorf("failed to update release: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("release not found or already deleted: %s", release.ID())
	}

	return nil
}

// Delete soft-deletes a release by ID
func (r *ReleaseRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE releases
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete release: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("release not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all releases matching the given criteria, excluding soft-deleted releases.
//
// Supported criteria: user_id (string), for_sale (bool), removed (bool).
func (r *ReleaseRepository) List(criteria map[string]any) ([]*models.Release, error) {
	query := fmt.Sprintf(`SELECT %s FROM releases WHERE deleted_at IS NULL`, releaseColumns)

	args := []any{}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}
	if forSale, ok := criteria["for_sale"].(bool); ok {
		if forSale {
			query += " AND listing_id IS NOT NULL AND listing_id != 0"
		} else {
			query += " AND (listing_id IS NULL OR listing_id = 0)"
		}
	}
	if removed, ok := criteria["removed"].(bool); ok {
		if removed {
			query += " AND removed_at IS NOT NULL"
		} else {
			query += " AND removed_at IS NULL"
		}
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query releases: %w", err)
	}
	defer rows.Close()

	var releases []*models.Release
	for rows.Next() {
		release, err := scanRelease(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan release: %w", err)
		}
		releases = append(releases, release)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return releases, nil
}

// MarkRemovedExcept soft-removes every release of the user whose Discogs ID is not in
// seen, skipping releases the user chose to keep. Returns the number of releases marked.
//
// Called at the end of a completed collection sync so that rows deleted remotely are
// flagged locally instead of being destroyed.
func (r *ReleaseRepository) MarkRemovedExcept(userID string, seen map[int64]struct{}, at time.Time) (int, error) {
	query := `
		SELECT id, discogs_id FROM releases
		WHERE user_id = ? AND removed_at IS NULL AND kept_after_removal = 0 AND deleted_at IS NULL
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to query releases: %w", err)
	}
	defer rows.Close()

	var missing []string
	for rows.Next() {
		var (
			id        string
			discogsID int64
		)
		if err := rows.Scan(&id, &discogsID); err != nil {
			return 0, fmt.Errorf("failed to scan release: %w", err)
		}
		if _, ok := seen[discogsID]; !ok {
			missing = append(missing, id)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("row iteration error: %w", err)
	}

	for _, id := range missing {
		_, err := r.db.Exec(`UPDATE releases SET removed_at = ?, updated_at = ? WHERE id = ?`, at, at, id)
		if err != nil {
			return 0, fmt.Errorf("failed to mark release removed: %w", err)
		}
	}

	return len(missing), nil
}

// ClearInventoryExcept wipes mirrored inventory data from every release of the user
// whose listing ID is not in seen. Returns the number of releases cleared.
//
// Called at the end of a completed inventory sync so that releases whose listing was
// sold or withdrawn stop showing stale sale data.
func (r *ReleaseRepository) ClearInventoryExcept(userID string, seen map[int64]struct{}, at time.Time) (int, error) {
	query := `
		SELECT id, listing_id FROM releases
		WHERE user_id = ? AND listing_id IS NOT NULL AND listing_id != 0 AND deleted_at IS NULL
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to query releases: %w", err)
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var (
			id        string
			listingID int64
		)
		if err := rows.Scan(&id, &listingID); err != nil {
			return 0, fmt.Errorf("failed to scan release: %w", err)
		}
		if _, ok := seen[listingID]; !ok {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("row iteration error: %w", err)
	}

	clear := `
		UPDATE releases
		SET listing_id = 0, condition = '', sleeve_condition = '', price = '', location = '',
			inventory_synced_at = NULL, updated_at = ?
		WHERE id = ?
	`
	for _, id := range stale {
		if _, err := r.db.Exec(clear, at, id); err != nil {
			return 0, fmt.Errorf("failed to clear release inventory: %w", err)
		}
	}

	return len(stale), nil
}

func scanRelease(row scanner) (*models.Release, error) {
	var (
		id                string
		sequence          int
		userID            string
		discogsID         int64
		title             string
		artist            string
		label             sql.NullString
		year              sql.NullInt64
		coverArtURL       sql.NullString
		discogsURI        sql.NullString
		notes             sql.NullString
		syncedAt          sql.NullTime
		removedAt         sql.NullTime
		keptAfterRemoval  sql.NullBool
		listingID         sql.NullInt64
		condition         sql.NullString
		sleeveCondition   sql.NullString
		price             sql.NullString
		location          sql.NullString
		inventorySyncedAt sql.NullTime
		createdAt         time.Time
		updatedAt         time.Time
		deletedAt         sql.NullTime
	)

	err := row.Scan(&id, &sequence, &userID, &discogsID, &title, &artist, &label, &year,
		&coverArtURL, &discogsURI, &notes, &syncedAt, &removedAt, &keptAfterRemoval,
		&listingID, &condition, &sleeveCondition, &price, &location, &inventorySyncedAt,
		&createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	release := models.NewRelease(sequence, userID, discogsID)
	release.SetID(id)
	release.SetMetadata(title, artist, label.String, int(year.Int64), coverArtURL.String, discogsURI.String)
	release.SetNotes(notes.String)
	release.SetCreatedAt(createdAt)
	release.SetUpdatedAt(updatedAt)
	if syncedAt.Valid {
		release.SetSyncedAt(syncedAt.Time)
	}
	if removedAt.Valid {
		release.SetRemovedAt(&removedAt.Time)
	}
	release.SetKeptAfterRemoval(keptAfterRemoval.Valid && keptAfterRemoval.Bool)
	if listingID.Valid && listingID.Int64 != 0 {
		var at time.Time
		if inventorySyncedAt.Valid {
			at = inventorySyncedAt.Time
		}
		release.SetInventory(listingID.Int64, condition.String, sleeveCondition.String,
			price.String, location.String, at)
		if !inventorySyncedAt.Valid {
			release.SetInventorySyncedAt(nil)
		}
	}
	if deletedAt.Valid {
		release.SetDeletedAt(&deletedAt.Time)
	}

	return release, nil
}

// nullableTime converts a *time.Time into a driver-friendly value.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
