package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/stylus-audio/stylus/internal/discogs"
	"github.com/stylus-audio/stylus/internal/models"
	"github.com/stylus-audio/stylus/internal/repositories"
	"github.com/stylus-audio/stylus/internal/shared"
)

// InventoryHandler mirrors the user's marketplace inventory into local storage.
//
// Each listing upserts keyed on (user, marketplace listing id). When the listed
// release is also in the collection the listing links to it and the sale data
// (condition, price, location) is mirrored onto the release row, so the collection
// view can show what is currently for sale without a join against the marketplace.
type InventoryHandler struct {
	listings *repositories.ListingRepository
	releases *repositories.ReleaseRepository
	userID   string
	logger   *log.Logger
}

// NewInventoryHandler creates a handler applying inventory listings for the given user.
func NewInventoryHandler(listings *repositories.ListingRepository, releases *repositories.ReleaseRepository, userID string, logger *log.Logger) *InventoryHandler {
	return &InventoryHandler{
		listings: listings,
		releases: releases,
		userID:   userID,
		logger:   logger,
	}
}

func (h *InventoryHandler) Kind() models.ResourceKind { return models.KindInventory }

// Key returns the marketplace listing ID.
func (h *InventoryHandler) Key(item discogs.ListingItem) int64 { return item.ID }

// Apply upserts one listing and mirrors its sale data onto the matching release.
func (h *InventoryHandler) Apply(ctx context.Context, item discogs.ListingItem) (Outcome, error) {
	now := time.Now().UTC()
	outcome := OutcomeUpdated

	listing, err := h.listings.GetByListingID(h.userID, item.ID)
	if errors.Is(err, shared.ErrNotFound) {
		listing = models.NewListing(0, h.userID, item.ID, item.Release.ID)
		outcome = OutcomeCreated
	} else if err != nil {
		return OutcomeUnchanged, err
	}

	previousStatus := listing.Status()
	statusKey := item.StatusKey()

	listing.SetRemoteData(item.Release.Title, item.ArtistName(), item.Condition,
		item.SleeveCondition, item.Price.Display(), item.Location, item.Comments,
		statusKey, item.PostedTime())

	switch {
	case statusKey == models.ListingSold && previousStatus != models.ListingSold:
		listing.MarkSold(now)
	case statusKey == models.ListingRemoved && previousStatus != models.ListingRemoved:
		listing.MarkRemoved(now)
	case listing.IsActive() && (previousStatus == models.ListingSold || previousStatus == models.ListingRemoved):
		// Relisted remotely, clear stale lifecycle stamps.
		listing.Revive()
	}

	listing.SetSyncedAt(now)

	if err := h.link(listing, item, now); err != nil {
		return OutcomeUnchanged, err
	}

	if outcome == OutcomeCreated {
		if err := h.listings.Create(listing); err != nil {
			return OutcomeUnchanged, err
		}
	} else {
		if err := h.listings.Update(listing); err != nil {
			return OutcomeUnchanged, err
		}
	}

	return outcome, nil
}

// link attaches the listing to the matching collection release, if any, and mirrors
// the sale data onto it. Listings for releases outside the collection (consignment
// items) stay unlinked; their cached title and artist cover display.
func (h *InventoryHandler) link(listing *models.Listing, item discogs.ListingItem, now time.Time) error {
	release, err := h.releases.GetByDiscogsID(h.userID, item.Release.ID)
	if errors.Is(err, shared.ErrNotFound) {
		h.logger.Debug("listing has no collection release", "listing", item.ID, "release", item.Release.ID)
		return nil
	}
	if err != nil {
		return err
	}

	listing.SetReleaseID(release.ID())

	if listing.IsActive() {
		release.SetInventory(item.ID, item.Condition, item.SleeveCondition,
			item.Price.Display(), item.Location, now)
	} else if release.ListingID() == item.ID {
		release.ClearInventory()
	}

	return h.releases.Update(release)
}

// Reconcile marks still-active listings that vanished from the remote inventory as
// removed and wipes their mirrored sale data off the releases.
func (h *InventoryHandler) Reconcile(ctx context.Context, seen map[int64]struct{}) (int, error) {
	now := time.Now().UTC()

	removed, err := h.listings.MarkRemovedExcept(h.userID, seen, now)
	if err != nil {
		return 0, err
	}

	if _, err := h.releases.ClearInventoryExcept(h.userID, seen, now); err != nil {
		return removed, err
	}

	return removed, nil
}
