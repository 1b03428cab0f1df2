package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/stylus-audio/stylus/internal/models"
	"github.com/stylus-audio/stylus/internal/shared"
)

// ListingRepository implements [models.Repository] for [models.Listing] persistence.
type ListingRepository struct {
	db *sql.DB
}

// NewListingRepository creates a new [ListingRepository] with the given database connection
func NewListingRepository(db *sql.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

const listingColumns = `id, sequence, user_id, release_id, listing_id, discogs_release_id,
	release_title, release_artist, condition, sleeve_condition, price, location, comments,
	status, listed_at, sold_at, removed_at, notification_dismissed, synced_at,
	created_at, updated_at, deleted_at`

// Create inserts a new listing into the database with generated ID and sequence
func (r *ListingRepository) Create(listing *models.Listing) error {
	sequence, err := NextSequence(r.db, "listings")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	listing.SetID(id)
	listing.SetSequence(sequence)

	if err := listing.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO listings (id, sequence, user_id, release_id, listing_id, discogs_release_id,
			release_title, release_artist, condition, sleeve_condition, price, location, comments,
			status, listed_at, sold_at, removed_at, notification_dismissed, synced_at,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, listing.UserID(), nullableString(listing.ReleaseID()),
		listing.ListingID(), listing.DiscogsReleaseID(), listing.ReleaseTitle(), listing.ReleaseArtist(),
		listing.Condition(), listing.SleeveCondition(), listing.Price(), listing.Location(),
		listing.Comments(), listing.Status(), nullableTime(listing.ListedAt()),
		nullableTime(listing.SoldAt()), nullableTime(listing.RemovedAt()),
		listing.NotificationDismissed(), nullableTime(listing.SyncedAt()),
		listing.CreatedAt(), listing.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}

	return nil
}

// Get retrieves a listing by ID, excluding soft-deleted listings
func (r *ListingRepository) Get(id string) (*models.Listing, error) {
	query := fmt.Sprintf(`SELECT %s FROM listings WHERE id = ? AND deleted_at IS NULL`, listingColumns)

	listing, err := scanListing(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("listing not found: %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query listing: %w", err)
	}

	return listing, nil
}

// GetByListingID retrieves a user's listing by its Discogs marketplace listing ID.
//
// This is the upsert identity for inventory sync.
func (r *ListingRepository) GetByListingID(userID string, listingID int64) (*models.Listing, error) {
	query := fmt.Sprintf(`SELECT %s FROM listings WHERE user_id = ? AND listing_id = ? AND deleted_at IS NULL`, listingColumns)

	listing, err := scanListing(r.db.QueryRow(query, userID, listingID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("listing %d not found for user %s: %w", listingID, userID, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query listing: %w", err)
	}

	return listing, nil
}

// Update modifies an existing listing in the database
func (r *ListingRepository) Update(listing *models.Listing) error {
	if err := listing.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	listing.SetUpdatedAt(now)

	query := `
		UPDATE listings
		SET release_id = ?, release_title = ?, release_artist = ?, condition = ?,
			sleeve_condition = ?, price = ?, location = ?, comments = ?, status = ?,
			listed_at = ?, sold_at = ?, removed_at = ?, notification_dismissed = ?,
			synced_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, nullableString(listing.ReleaseID()), listing.ReleaseTitle(),
		listing.ReleaseArtist(), listing.Condition(), listing.SleeveCondition(), listing.Price(),
		listing.Location(), listing.Comments(), listing.Status(), nullableTime(listing.ListedAt()),
		nullableTime(listing.SoldAt()), nullableTime(listing.RemovedAt()),
		listing.NotificationDismissed(), nullableTime(listing.SyncedAt()), now, listing.ID())
	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("listing not found or already deleted: %s", listing.ID())
	}

	return nil
}

// Delete soft-deletes a listing by ID
func (r *ListingRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE listings
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("listing not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all listings matching the given criteria, excluding soft-deleted listings.
//
// Supported criteria: user_id (string), status (string), needs_attention (bool).
func (r *ListingRepository) List(criteria map[string]any) ([]*models.Listing, error) {
	query := fmt.Sprintf(`SELECT %s FROM listings WHERE deleted_at IS NULL`, listingColumns)

	args := []any{}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}
	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	if attention, ok := criteria["needs_attention"].(bool); ok && attention {
		query += " AND status IN (?, ?) AND notification_dismissed = 0"
		args = append(args, models.ListingSold, models.ListingRemoved)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, listing)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return listings, nil
}

// MarkRemovedExcept marks every still-active listing of the user whose Discogs listing
// ID is not in seen as removed, re-arming the attention notification. Returns the
// number of listings marked.
//
// Only active listings flip: a listing already sold or removed keeps its state.
func (r *ListingRepository) MarkRemovedExcept(userID string, seen map[int64]struct{}, at time.Time) (int, error) {
	query := `
		SELECT id, listing_id FROM listings
		WHERE user_id = ? AND status IN (?, ?) AND deleted_at IS NULL
	`

	rows, err := r.db.Query(query, userID, models.ListingForSale, models.ListingDraft)
	if err != nil {
		return 0, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var missing []string
	for rows.Next() {
		var (
			id        string
			listingID int64
		)
		if err := rows.Scan(&id, &listingID); err != nil {
			return 0, fmt.Errorf("failed to scan listing: %w", err)
		}
		if _, ok := seen[listingID]; !ok {
			missing = append(missing, id)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("row iteration error: %w", err)
	}

	mark := `
		UPDATE listings
		SET status = ?, removed_at = ?, notification_dismissed = 0, updated_at = ?
		WHERE id = ?
	`
	for _, id := range missing {
		if _, err := r.db.Exec(mark, models.ListingRemoved, at, at, id); err != nil {
			return 0, fmt.Errorf("failed to mark listing removed: %w", err)
		}
	}

	return len(missing), nil
}

func scanListing(row scanner) (*models.Listing, error) {
	var (
		id                    string
		sequence              int
		userID                string
		releaseID             sql.NullString
		listingID             int64
		discogsReleaseID      int64
		releaseTitle          sql.NullString
		releaseArtist         sql.NullString
		condition             sql.NullString
		sleeveCondition       sql.NullString
		price                 sql.NullString
		location              sql.NullString
		comments              sql.NullString
		status                string
		listedAt              sql.NullTime
		soldAt                sql.NullTime
		removedAt             sql.NullTime
		notificationDismissed bool
		syncedAt              sql.NullTime
		createdAt             time.Time
		updatedAt             time.Time
		deletedAt             sql.NullTime
	)

	err := row.Scan(&id, &sequence, &userID, &releaseID, &listingID, &discogsReleaseID,
		&releaseTitle, &releaseArtist, &condition, &sleeveCondition, &price, &location,
		&comments, &status, &listedAt, &soldAt, &removedAt, &notificationDismissed,
		&syncedAt, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	listing := models.NewListing(sequence, userID, listingID, discogsReleaseID)
	listing.SetID(id)
	listing.SetCreatedAt(createdAt)
	listing.SetUpdatedAt(updatedAt)
	listing.SetReleaseID(releaseID.String)
	var listed *time.Time
	if listedAt.Valid {
		listed = &listedAt.Time
	}
	listing.SetRemoteData(releaseTitle.String, releaseArtist.String, condition.String,
		sleeveCondition.String, price.String, location.String, comments.String, status, listed)
	if soldAt.Valid {
		listing.SetSoldAt(&soldAt.Time)
	}
	if removedAt.Valid {
		listing.SetRemovedAt(&removedAt.Time)
	}
	listing.SetNotificationDismissed(notificationDismissed)
	if syncedAt.Valid {
		listing.SetSyncedAt(syncedAt.Time)
	}
	if deletedAt.Valid {
		listing.SetDeletedAt(&deletedAt.Time)
	}

	return listing, nil
}

// nullableString stores empty foreign keys as NULL so ON DELETE SET NULL behaves.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
