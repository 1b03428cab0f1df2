package tasks

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stylus-audio/stylus/internal/discogs"
	"github.com/stylus-audio/stylus/internal/models"
	"github.com/stylus-audio/stylus/internal/repositories"
	"github.com/stylus-audio/stylus/internal/shared"
)

// releaseDetailHandler serves /releases/42 with a two-track tracklist plus a heading.
func releaseDetailHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/releases/42" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `{
			"id": 42,
			"title": "Untrue",
			"year": 2007,
			"uri": "https://www.discogs.com/release/42",
			"artists": [{"name": "Burial (2)"}],
			"labels": [{"name": "Hyperdub"}],
			"images": [{"type": "primary", "uri": "https://img/untrue.jpg"}],
			"tracklist": [
				{"position": "", "type_": "heading", "title": "Side A"},
				{"position": "A1", "type_": "track", "title": "Archangel", "duration": "3:58"},
				{"position": "A2", "type_": "track", "title": "Near Dark", "duration": "3:54"}
			]
		}`)
	})
}

func newCollectionTestClient(t *testing.T, handler http.Handler) *discogs.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := discogs.NewClient(
		shared.DiscogsConfig{Username: "crate_digger", PersonalToken: "tok"},
		shared.SyncConfig{MinRequestIntervalMS: 1, RequestTimeoutSeconds: 5},
	)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	client.SetBaseURL(server.URL)
	return client
}

func collectionItem(id int64) discogs.CollectionItem {
	return discogs.CollectionItem{
		ID:               id,
		BasicInformation: discogs.BasicInformation{ID: id, Title: "Untrue"},
	}
}

func TestCollectionHandler_Apply(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	client := newCollectionTestClient(t, releaseDetailHandler(t))

	releases := repositories.NewReleaseRepository(db)
	tracks := repositories.NewTrackRepository(db)
	handler := NewCollectionHandler(client, releases, tracks, user.ID(), testLogger())
	ctx := context.Background()

	t.Run("first apply creates release and tracks", func(t *testing.T) {
		outcome, err := handler.Apply(ctx, collectionItem(42))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome != OutcomeCreated {
			t.Errorf("expected created, got %d", outcome)
		}

		release, err := releases.GetByDiscogsID(user.ID(), 42)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if release.Title() != "Untrue" || release.Artist() != "Burial" || release.Label() != "Hyperdub" {
			t.Errorf("unexpected metadata: %q / %q / %q", release.Title(), release.Artist(), release.Label())
		}
		if release.CoverArtURL() != "https://img/untrue.jpg" {
			t.Errorf("unexpected cover: %q", release.CoverArtURL())
		}
		if release.SyncedAt() == nil {
			t.Error("expected synced_at stamped")
		}

		stored, _ := tracks.ListByRelease(release.ID())
		if len(stored) != 2 {
			t.Fatalf("expected 2 tracks (heading dropped), got %d", len(stored))
		}
		if stored[0].Position() != "A1" || stored[0].Title() != "Archangel" {
			t.Errorf("unexpected first track: %q %q", stored[0].Position(), stored[0].Title())
		}
	})

	t.Run("second apply updates in place preserving local data", func(t *testing.T) {
		release, _ := releases.GetByDiscogsID(user.ID(), 42)
		release.SetNotes("first pressing")
		if err := releases.Update(release); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		stored, _ := tracks.ListByRelease(release.ID())
		stored[0].SetBPM(140)
		stored[0].SetEnergy(8)
		if err := tracks.Update(stored[0]); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		outcome, err := handler.Apply(ctx, collectionItem(42))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome != OutcomeUpdated {
			t.Errorf("expected updated, got %d", outcome)
		}

		release, _ = releases.GetByDiscogsID(user.ID(), 42)
		if release.Notes() != "first pressing" {
			t.Errorf("local notes must survive sync, got %q", release.Notes())
		}

		after, _ := tracks.ListByRelease(release.ID())
		if len(after) != 2 {
			t.Fatalf("expected track count unchanged, got %d", len(after))
		}
		if after[0].BPM() != 140 || after[0].Energy() != 8 {
			t.Error("track user metadata must survive sync")
		}
		if after[0].ID() != stored[0].ID() {
			t.Error("tracks must match by position, not be recreated")
		}
	})

	t.Run("removed release is revived when it reappears", func(t *testing.T) {
		release, _ := releases.GetByDiscogsID(user.ID(), 42)
		release.MarkRemoved(time.Now().UTC())
		if err := releases.Update(release); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := handler.Apply(ctx, collectionItem(42)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		release, _ = releases.GetByDiscogsID(user.ID(), 42)
		if release.IsRemovedFromDiscogs() {
			t.Error("expected removal flag cleared")
		}
	})
}

func TestCollectionHandler_TracklistShrink(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)

	var shrunk bool
	client := newCollectionTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shrunk {
			fmt.Fprint(w, `{
				"id": 42, "title": "Untrue", "artists": [{"name": "Burial"}],
				"tracklist": [{"position": "A1", "type_": "track", "title": "Archangel", "duration": "3:58"}]
			}`)
			return
		}
		fmt.Fprint(w, `{
			"id": 42, "title": "Untrue", "artists": [{"name": "Burial"}],
			"tracklist": [
				{"position": "A1", "type_": "track", "title": "Archangel", "duration": "3:58"},
				{"position": "A2", "type_": "track", "title": "Near Dark", "duration": "3:54"},
				{"position": "A3", "type_": "track", "title": "Ghost Hardware", "duration": "4:54"}
			]
		}`)
	}))

	releases := repositories.NewReleaseRepository(db)
	tracks := repositories.NewTrackRepository(db)
	handler := NewCollectionHandler(client, releases, tracks, user.ID(), testLogger())
	ctx := context.Background()

	if _, err := handler.Apply(ctx, collectionItem(42)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	release, _ := releases.GetByDiscogsID(user.ID(), 42)
	stored, _ := tracks.ListByRelease(release.ID())
	if len(stored) != 3 {
		t.Fatalf("expected 3 tracks, got %d", len(stored))
	}

	// A2 carries user data and must survive the shrink; A3 is untouched and goes.
	for _, track := range stored {
		if track.Position() == "A2" {
			track.SetNotes("crackle at the runout")
			if err := tracks.Update(track); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
	}

	shrunk = true
	if _, err := handler.Apply(ctx, collectionItem(42)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after, _ := tracks.ListByRelease(release.ID())
	positions := make(map[string]bool)
	for _, track := range after {
		positions[track.Position()] = true
	}
	if len(after) != 2 || !positions["A1"] || !positions["A2"] || positions["A3"] {
		t.Errorf("expected A1 and A2 to survive, A3 deleted; got %v", positions)
	}
}

func TestCollectionHandler_Reconcile(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	releases := repositories.NewReleaseRepository(db)
	tracks := repositories.NewTrackRepository(db)
	handler := NewCollectionHandler(nil, releases, tracks, user.ID(), testLogger())

	for _, id := range []int64{42, 43, 44} {
		release := models.NewRelease(0, user.ID(), id)
		release.SetMetadata("Untitled", "Unknown", "", 0, "", "")
		if err := releases.Create(release); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// Remote snapshot now only has 42 and 44.
	seen := map[int64]struct{}{42: {}, 44: {}}
	removed, err := handler.Reconcile(context.Background(), seen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}

	gone, _ := releases.GetByDiscogsID(user.ID(), 43)
	if !gone.IsRemovedFromDiscogs() {
		t.Error("expected release 43 marked removed")
	}
	kept, _ := releases.GetByDiscogsID(user.ID(), 42)
	if kept.IsRemovedFromDiscogs() {
		t.Error("release 42 must stay")
	}
}
