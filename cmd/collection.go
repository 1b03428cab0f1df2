package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/stylus-audio/stylus/internal/formatter"
	"github.com/stylus-audio/stylus/internal/shared"
	"github.com/urfave/cli/v3"
)

// ListReleases prints the synced collection, optionally filtered.
func (r *Runner) ListReleases(ctx context.Context, cmd *cli.Command) error {
	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	user, err := r.currentUser(d)
	if err != nil {
		return err
	}

	criteria := map[string]any{"user_id": user.ID()}
	if cmd.Bool("for-sale") {
		criteria["for_sale"] = true
	}
	if cmd.Bool("removed") {
		criteria["removed"] = true
	}

	releases, err := d.releases.List(criteria)
	if err != nil {
		return err
	}

	return r.writePlain("%s\n", formatter.FormatReleases(releases))
}

// ListTracks prints the tracklist of one release with its DJ metadata.
func (r *Runner) ListTracks(ctx context.Context, cmd *cli.Command) error {
	discogsID, err := parseIDArg(cmd, "discogs-id")
	if err != nil {
		return err
	}

	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	user, err := r.currentUser(d)
	if err != nil {
		return err
	}

	release, err := d.releases.GetByDiscogsID(user.ID(), discogsID)
	if err != nil {
		return err
	}

	tracks, err := d.tracks.ListByRelease(release.ID())
	if err != nil {
		return err
	}

	r.writePlain("%s - %s\n", release.Artist(), release.Title())
	return r.writePlain("%s\n", formatter.FormatTracks(tracks))
}

// KeepRelease pins a remotely removed release so reconciliation passes leave it
// in the local collection.
func (r *Runner) KeepRelease(ctx context.Context, cmd *cli.Command) error {
	discogsID, err := parseIDArg(cmd, "discogs-id")
	if err != nil {
		return err
	}

	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	user, err := r.currentUser(d)
	if err != nil {
		return err
	}

	release, err := d.releases.GetByDiscogsID(user.ID(), discogsID)
	if err != nil {
		return err
	}

	if !release.IsRemovedFromDiscogs() {
		return r.writePlain("release %d is still in the remote collection, nothing to keep\n", discogsID)
	}

	release.KeepAfterRemoval()
	if err := d.releases.Update(release); err != nil {
		return err
	}

	return r.writePlain("keeping %s - %s despite the remote removal\n", release.Artist(), release.Title())
}

// ListListings prints synced inventory listings, optionally only the ones that
// need attention.
func (r *Runner) ListListings(ctx context.Context, cmd *cli.Command) error {
	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	user, err := r.currentUser(d)
	if err != nil {
		return err
	}

	criteria := map[string]any{"user_id": user.ID()}
	if cmd.Bool("attention") {
		criteria["needs_attention"] = true
	}

	listings, err := d.listings.List(criteria)
	if err != nil {
		return err
	}

	return r.writePlain("%s\n", formatter.FormatListings(listings))
}

// DismissListing clears the sold/removed notification flag for a listing.
func (r *Runner) DismissListing(ctx context.Context, cmd *cli.Command) error {
	listingID, err := parseIDArg(cmd, "listing-id")
	if err != nil {
		return err
	}

	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	user, err := r.currentUser(d)
	if err != nil {
		return err
	}

	listing, err := d.listings.GetByListingID(user.ID(), listingID)
	if err != nil {
		return err
	}

	listing.DismissNotification()
	if err := d.listings.Update(listing); err != nil {
		return err
	}

	return r.writePlain("dismissed notification for listing %d (%s - %s)\n",
		listingID, listing.ReleaseArtist(), listing.ReleaseTitle())
}

// parseIDArg reads a required numeric positional argument.
func parseIDArg(cmd *cli.Command, name string) (int64, error) {
	raw := cmd.StringArg(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be numeric, got %q", shared.ErrInvalidInput, name, raw)
	}
	return id, nil
}
