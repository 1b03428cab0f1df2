package models

import (
	"fmt"
	"time"
)

// Listing status values mirroring the Discogs marketplace lifecycle.
const (
	ListingForSale = "for_sale"
	ListingDraft   = "draft"
	ListingSold    = "sold"
	ListingRemoved = "removed"
)

// Listing is a sale inventory listing synced from Discogs.
//
// Supports multiple listings per release (multiple copies at different conditions or
// prices) and listings whose release is not in the collection (consignment items);
// for the latter the release title/artist are cached from the remote payload.
// The (userID, listingID) pair is the stable identity used for upserts.
type Listing struct {
	base
	userID    string
	listingID int64

	// Optional link to the local collection release
	releaseID        string
	discogsReleaseID int64

	// Canonical listing data
	releaseTitle    string
	releaseArtist   string
	condition       string
	sleeveCondition string
	price           string
	location        string
	comments        string
	status          string
	listedAt        *time.Time

	// Lifecycle tracking
	soldAt    *time.Time
	removedAt *time.Time

	// Local-only
	notificationDismissed bool

	syncedAt *time.Time
}

// NewListing creates a Listing owned by userID for the given Discogs listing and release ids.
func NewListing(sequence int, userID string, listingID, discogsReleaseID int64) *Listing {
	return &Listing{
		base:             newBase(sequence),
		userID:           userID,
		listingID:        listingID,
		discogsReleaseID: discogsReleaseID,
		status:           ListingForSale,
	}
}

func (l *Listing) UserID() string          { return l.userID }
func (l *Listing) ListingID() int64        { return l.listingID }
func (l *Listing) DiscogsReleaseID() int64 { return l.discogsReleaseID }

func (l *Listing) ReleaseID() string       { return l.releaseID }
func (l *Listing) SetReleaseID(id string)  { l.releaseID = id }
func (l *Listing) ReleaseTitle() string    { return l.releaseTitle }
func (l *Listing) ReleaseArtist() string   { return l.releaseArtist }
func (l *Listing) Condition() string       { return l.condition }
func (l *Listing) SleeveCondition() string { return l.sleeveCondition }
func (l *Listing) Price() string           { return l.price }
func (l *Listing) Location() string        { return l.location }
func (l *Listing) Comments() string        { return l.comments }
func (l *Listing) Status() string          { return l.status }
func (l *Listing) SetStatus(s string)      { l.status = s }
func (l *Listing) ListedAt() *time.Time      { return l.listedAt }
func (l *Listing) SetListedAt(t *time.Time)  { l.listedAt = t }
func (l *Listing) SoldAt() *time.Time        { return l.soldAt }
func (l *Listing) SetSoldAt(t *time.Time)    { l.soldAt = t }
func (l *Listing) RemovedAt() *time.Time     { return l.removedAt }
func (l *Listing) SetRemovedAt(t *time.Time) { l.removedAt = t }
func (l *Listing) SyncedAt() *time.Time      { return l.syncedAt }
func (l *Listing) SetSyncedAt(t time.Time)   { l.syncedAt = &t }

func (l *Listing) NotificationDismissed() bool     { return l.notificationDismissed }
func (l *Listing) SetNotificationDismissed(v bool) { l.notificationDismissed = v }

// DismissNotification clears the sold/removed attention flag.
func (l *Listing) DismissNotification() { l.notificationDismissed = true }

// SetRemoteData overwrites all canonical listing fields with fresh remote values.
func (l *Listing) SetRemoteData(title, artist, condition, sleeveCondition, price, location, comments, status string, listedAt *time.Time) {
	l.releaseTitle = title
	l.releaseArtist = artist
	l.condition = condition
	l.sleeveCondition = sleeveCondition
	l.price = price
	l.location = location
	l.comments = comments
	if status != "" {
		l.status = status
	}
	l.listedAt = listedAt
}

// IsActive reports whether the listing is currently for sale or drafted.
func (l *Listing) IsActive() bool {
	return l.status == ListingForSale || l.status == ListingDraft
}

// NeedsAttention reports whether the listing left the inventory and the user has not
// dismissed the notification yet.
func (l *Listing) NeedsAttention() bool {
	return (l.status == ListingSold || l.status == ListingRemoved) && !l.notificationDismissed
}

// MarkSold marks the listing as sold and re-arms the notification flag.
func (l *Listing) MarkSold(at time.Time) {
	l.status = ListingSold
	l.soldAt = &at
	l.notificationDismissed = false
}

// MarkRemoved marks the listing as removed from the remote inventory (soft removal)
// and re-arms the notification flag.
func (l *Listing) MarkRemoved(at time.Time) {
	l.status = ListingRemoved
	l.removedAt = &at
	l.notificationDismissed = false
}

// Revive clears removal state when the listing reappears in a later sync.
func (l *Listing) Revive() {
	l.removedAt = nil
	l.soldAt = nil
}

// Validate checks required identity fields.
func (l *Listing) Validate() error {
	if l.userID == "" {
		return fmt.Errorf("user ID is required")
	}
	if l.listingID == 0 {
		return fmt.Errorf("listing ID is required")
	}
	if l.discogsReleaseID == 0 {
		return fmt.Errorf("discogs release ID is required")
	}
	switch l.status {
	case ListingForSale, ListingDraft, ListingSold, ListingRemoved:
	default:
		return fmt.Errorf("invalid status: %s", l.status)
	}
	return nil
}
