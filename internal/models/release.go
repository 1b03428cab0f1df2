package models

import (
	"fmt"
	"time"
)

// Release is a vinyl release from the user's Discogs collection.
//
// Canonical metadata (title, artist, label, year, cover art, URI) is overwritten on
// every sync; notes are local-only. The (userID, discogsID) pair is the stable
// identity used for upserts.
type Release struct {
	base
	userID    string
	discogsID int64

	// Canonical Discogs metadata
	title       string
	artist      string
	label       string
	year        int
	coverArtURL string
	discogsURI  string

	// Local-only
	notes string

	// Sync tracking
	syncedAt         *time.Time
	removedAt        *time.Time
	keptAfterRemoval bool

	// Inventory mirror (set when the release is listed for sale)
	listingID         int64
	condition         string
	sleeveCondition   string
	price             string
	location          string
	inventorySyncedAt *time.Time
}

// NewRelease creates a Release owned by userID and identified by discogsID.
func NewRelease(sequence int, userID string, discogsID int64) *Release {
	return &Release{base: newBase(sequence), userID: userID, discogsID: discogsID}
}

func (r *Release) UserID() string   { return r.userID }
func (r *Release) DiscogsID() int64 { return r.discogsID }

func (r *Release) Title() string           { return r.title }
func (r *Release) Artist() string          { return r.artist }
func (r *Release) Label() string           { return r.label }
func (r *Release) Year() int               { return r.year }
func (r *Release) CoverArtURL() string     { return r.coverArtURL }
func (r *Release) DiscogsURI() string      { return r.discogsURI }
func (r *Release) Notes() string           { return r.notes }
func (r *Release) SetNotes(notes string)   { r.notes = notes }
func (r *Release) SyncedAt() *time.Time    { return r.syncedAt }
func (r *Release) SetSyncedAt(t time.Time) { r.syncedAt = &t }

// SetMetadata overwrites all canonical Discogs fields with fresh remote values.
// Empty remote values erase the stored ones; the remote is authoritative.
func (r *Release) SetMetadata(title, artist, label string, year int, coverArtURL, discogsURI string) {
	r.title = title
	r.artist = artist
	r.label = label
	r.year = year
	r.coverArtURL = coverArtURL
	r.discogsURI = discogsURI
}

func (r *Release) RemovedAt() *time.Time      { return r.removedAt }
func (r *Release) SetRemovedAt(t *time.Time)  { r.removedAt = t }
func (r *Release) KeptAfterRemoval() bool     { return r.keptAfterRemoval }
func (r *Release) SetKeptAfterRemoval(v bool) { r.keptAfterRemoval = v }

// IsRemovedFromDiscogs reports whether the release vanished from the remote collection.
func (r *Release) IsRemovedFromDiscogs() bool { return r.removedAt != nil }

// MarkRemoved flags the release as absent from the remote collection snapshot.
func (r *Release) MarkRemoved(at time.Time) { r.removedAt = &at }

// KeepAfterRemoval records that the user chose to keep a remotely removed release.
func (r *Release) KeepAfterRemoval() { r.keptAfterRemoval = true }

// Revive clears removal state when the release reappears in a later sync.
func (r *Release) Revive() {
	r.removedAt = nil
	r.keptAfterRemoval = false
}

func (r *Release) ListingID() int64             { return r.listingID }
func (r *Release) Condition() string            { return r.condition }
func (r *Release) SleeveCondition() string      { return r.sleeveCondition }
func (r *Release) Price() string                { return r.price }
func (r *Release) Location() string             { return r.location }
func (r *Release) InventorySyncedAt() *time.Time     { return r.inventorySyncedAt }
func (r *Release) SetInventorySyncedAt(t *time.Time) { r.inventorySyncedAt = t }

// IsForSale reports whether the release currently has an inventory listing.
func (r *Release) IsForSale() bool { return r.listingID != 0 }

// SetInventory mirrors inventory data from a matched sale listing onto the release.
func (r *Release) SetInventory(listingID int64, condition, sleeveCondition, price, location string, at time.Time) {
	r.listingID = listingID
	r.condition = condition
	r.sleeveCondition = sleeveCondition
	r.price = price
	r.location = location
	r.inventorySyncedAt = &at
}

// ClearInventory removes mirrored inventory data when the item leaves the inventory.
func (r *Release) ClearInventory() {
	r.listingID = 0
	r.condition = ""
	r.sleeveCondition = ""
	r.price = ""
	r.location = ""
	r.inventorySyncedAt = nil
}

// Validate checks required identity and canonical fields.
func (r *Release) Validate() error {
	if r.userID == "" {
		return fmt.Errorf("user ID is required")
	}
	if r.discogsID == 0 {
		return fmt.Errorf("discogs ID is required")
	}
	if r.title == "" {
		return fmt.Errorf("title is required")
	}
	if r.artist == "" {
		return fmt.Errorf("artist is required")
	}
	return nil
}
