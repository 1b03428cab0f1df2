package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/stylus-audio/stylus/internal/discogs"
	"github.com/stylus-audio/stylus/internal/models"
	"github.com/stylus-audio/stylus/internal/repositories"
	"github.com/stylus-audio/stylus/internal/shared"
)

// CollectionHandler mirrors the user's Discogs collection folder into local storage.
//
// Each collection item triggers a release-detail fetch for the tracklist, then an
// upsert keyed on (user, discogs release id). Canonical metadata is overwritten with
// the remote values on every pass; local notes and DJ track metadata are preserved.
type CollectionHandler struct {
	client   *discogs.Client
	releases *repositories.ReleaseRepository
	tracks   *repositories.TrackRepository
	userID   string
	logger   *log.Logger
}

// NewCollectionHandler creates a handler applying collection items for the given user.
func NewCollectionHandler(client *discogs.Client, releases *repositories.ReleaseRepository, tracks *repositories.TrackRepository, userID string, logger *log.Logger) *CollectionHandler {
	return &CollectionHandler{
		client:   client,
		releases: releases,
		tracks:   tracks,
		userID:   userID,
		logger:   logger,
	}
}

func (h *CollectionHandler) Kind() models.ResourceKind { return models.KindCollection }

// Key returns the Discogs release ID of a collection item.
func (h *CollectionHandler) Key(item discogs.CollectionItem) int64 {
	if item.BasicInformation.ID != 0 {
		return item.BasicInformation.ID
	}
	return item.ID
}

// Apply fetches the full release and upserts it with its tracklist.
func (h *CollectionHandler) Apply(ctx context.Context, item discogs.CollectionItem) (Outcome, error) {
	discogsID := h.Key(item)

	detail, err := h.client.Release(ctx, discogsID)
	if err != nil {
		return OutcomeUnchanged, fmt.Errorf("failed to fetch release %d: %w", discogsID, err)
	}

	now := time.Now().UTC()
	outcome := OutcomeUpdated

	release, err := h.releases.GetByDiscogsID(h.userID, discogsID)
	if errors.Is(err, shared.ErrNotFound) {
		release = models.NewRelease(0, h.userID, discogsID)
		outcome = OutcomeCreated
	} else if err != nil {
		return OutcomeUnchanged, err
	}

	release.SetMetadata(detail.Title, detail.ArtistNames(), detail.LabelName(),
		detail.Year, detail.CoverImage(), detail.URI)
	release.SetSyncedAt(now)
	if release.IsRemovedFromDiscogs() {
		// Reappeared remotely, clear the stale removal flag.
		release.Revive()
	}

	if outcome == OutcomeCreated {
		if err := h.releases.Create(release); err != nil {
			return OutcomeUnchanged, err
		}
	} else {
		if err := h.releases.Update(release); err != nil {
			return OutcomeUnchanged, err
		}
	}

	if err := h.syncTracks(release, detail.PlayableTracks()); err != nil {
		return outcome, fmt.Errorf("failed to sync tracks for release %d: %w", discogsID, err)
	}

	return outcome, nil
}

// syncTracks aligns the stored tracks of a release with the remote tracklist.
//
// Tracks match by their verbatim position key; when the remote lists the same
// position twice the first stored track wins and the duplicate is inserted as a new
// row. Stored tracks missing from the remote list are deleted only when they carry
// no user data, otherwise they stay as orphans so BPM, key and notes survive
// tracklist corrections upstream.
func (h *CollectionHandler) syncTracks(release *models.Release, entries []discogs.TrackEntry) error {
	existing, err := h.tracks.ListByRelease(release.ID())
	if err != nil {
		return err
	}

	byPosition := make(map[string][]*models.Track)
	for _, track := range existing {
		byPosition[track.Position()] = append(byPosition[track.Position()], track)
	}

	matched := make(map[string]struct{})

	for _, entry := range entries {
		candidates := byPosition[entry.Position]

		var track *models.Track
		for _, candidate := range candidates {
			if _, taken := matched[candidate.ID()]; !taken {
				track = candidate
				break
			}
		}

		if track == nil {
			track = models.NewTrack(0, release.ID(), entry.Position, entry.Title, entry.Duration)
			if err := h.tracks.Create(track); err != nil {
				return err
			}
			matched[track.ID()] = struct{}{}
			continue
		}

		track.SetMetadata(entry.Title, entry.Duration)
		if err := h.tracks.Update(track); err != nil {
			return err
		}
		matched[track.ID()] = struct{}{}
	}

	for _, track := range existing {
		if _, ok := matched[track.ID()]; ok {
			continue
		}
		if track.HasUserData() {
			h.logger.Debug("keeping orphaned track with user data",
				"release", release.DiscogsID(), "position", track.Position())
			continue
		}
		if err := h.tracks.Delete(track.ID()); err != nil {
			return err
		}
	}

	return nil
}

// Reconcile soft-removes releases that vanished from the remote collection,
// skipping releases the user pinned with kept_after_removal.
func (h *CollectionHandler) Reconcile(ctx context.Context, seen map[int64]struct{}) (int, error) {
	return h.releases.MarkRemovedExcept(h.userID, seen, time.Now().UTC())
}
