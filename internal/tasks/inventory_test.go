package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stylus-audio/stylus/internal/discogs"
	"github.com/stylus-audio/stylus/internal/models"
	"github.com/stylus-audio/stylus/internal/repositories"
)

func listingItem(id, releaseID int64, status string) discogs.ListingItem {
	return discogs.ListingItem{
		ID:              id,
		Status:          status,
		Condition:       "Very Good Plus (VG+)",
		SleeveCondition: "Very Good (VG)",
		Price:           discogs.Price{Currency: "GBP", Value: 18},
		Location:        "bin 4",
		Posted:          "2026-08-01T12:00:00Z",
		Release:         discogs.ListingRelease{ID: releaseID, Title: "Untrue", Artist: "Burial (2)"},
	}
}

func TestInventoryHandler_Apply(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)

	listings := repositories.NewListingRepository(db)
	releases := repositories.NewReleaseRepository(db)
	handler := NewInventoryHandler(listings, releases, user.ID(), testLogger())
	ctx := context.Background()

	// Release 42 is in the collection; the listing should link and mirror to it.
	release := models.NewRelease(0, user.ID(), 42)
	release.SetMetadata("Untrue", "Burial", "Hyperdub", 2007, "", "")
	if err := releases.Create(release); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("create links and mirrors onto the release", func(t *testing.T) {
		outcome, err := handler.Apply(ctx, listingItem(9001, 42, "For Sale"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome != OutcomeCreated {
			t.Errorf("expected created, got %d", outcome)
		}

		listing, err := listings.GetByListingID(user.ID(), 9001)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if listing.ReleaseID() != release.ID() {
			t.Error("expected listing linked to the collection release")
		}
		if listing.Status() != models.ListingForSale || listing.ReleaseArtist() != "Burial" {
			t.Errorf("unexpected listing state: %q / %q", listing.Status(), listing.ReleaseArtist())
		}
		if listing.ListedAt() == nil {
			t.Error("expected posted timestamp parsed")
		}

		mirrored, _ := releases.GetByDiscogsID(user.ID(), 42)
		if !mirrored.IsForSale() || mirrored.Price() != "18.00 GBP" || mirrored.Location() != "bin 4" {
			t.Errorf("expected sale data mirrored, got price %q location %q", mirrored.Price(), mirrored.Location())
		}
	})

	t.Run("sold transition stamps soldAt and clears the mirror", func(t *testing.T) {
		outcome, err := handler.Apply(ctx, listingItem(9001, 42, "Sold"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome != OutcomeUpdated {
			t.Errorf("expected updated, got %d", outcome)
		}

		listing, _ := listings.GetByListingID(user.ID(), 9001)
		if listing.Status() != models.ListingSold || listing.SoldAt() == nil {
			t.Error("expected sold status with timestamp")
		}
		if !listing.NeedsAttention() {
			t.Error("a sale should need attention until dismissed")
		}

		mirrored, _ := releases.GetByDiscogsID(user.ID(), 42)
		if mirrored.IsForSale() {
			t.Error("expected mirror cleared after sale")
		}
	})

	t.Run("relisting revives the listing", func(t *testing.T) {
		if _, err := handler.Apply(ctx, listingItem(9001, 42, "For Sale")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		listing, _ := listings.GetByListingID(user.ID(), 9001)
		if listing.Status() != models.ListingForSale || listing.SoldAt() != nil {
			t.Error("expected relisted state with sold stamp cleared")
		}
	})

	t.Run("listing without a collection release stays unlinked", func(t *testing.T) {
		if _, err := handler.Apply(ctx, listingItem(9002, 777, "For Sale")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		listing, _ := listings.GetByListingID(user.ID(), 9002)
		if listing.ReleaseID() != "" {
			t.Error("expected no release link for a consignment listing")
		}
		if listing.ReleaseTitle() != "Untrue" {
			t.Error("expected cached display metadata on the listing")
		}
	})
}

func TestInventoryHandler_Reconcile(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)

	listings := repositories.NewListingRepository(db)
	releases := repositories.NewReleaseRepository(db)
	handler := NewInventoryHandler(listings, releases, user.ID(), testLogger())
	ctx := context.Background()

	release := models.NewRelease(0, user.ID(), 42)
	release.SetMetadata("Untrue", "Burial", "", 0, "", "")
	release.SetInventory(9001, "VG+", "VG", "18.00 GBP", "bin 4", time.Now().UTC())
	if err := releases.Create(release); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, id := range []int64{9001, 9002} {
		listing := models.NewListing(0, user.ID(), id, 42)
		listing.SetRemoteData("Untrue", "Burial", "VG+", "VG", "18.00 GBP", "", "", models.ListingForSale, nil)
		if err := listings.Create(listing); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// Only 9002 is still in the remote inventory.
	removed, err := handler.Reconcile(ctx, map[int64]struct{}{9002: {}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 listing removed, got %d", removed)
	}

	gone, _ := listings.GetByListingID(user.ID(), 9001)
	if gone.Status() != models.ListingRemoved || !gone.NeedsAttention() {
		t.Error("expected 9001 removed and needing attention")
	}

	cleared, _ := releases.GetByDiscogsID(user.ID(), 42)
	if cleared.IsForSale() {
		t.Error("expected stale mirror wiped from the release")
	}
}

func TestBuildStatus(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	runs := repositories.NewSyncRunRepository(db)

	t.Run("never synced", func(t *testing.T) {
		status, err := BuildStatus(runs, user.ID(), models.KindCollection)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status.Run != nil {
			t.Error("expected no run")
		}
		if status.Message != "collection: never synced" {
			t.Errorf("unexpected message: %q", status.Message)
		}
	})

	t.Run("completed run summarizes counters", func(t *testing.T) {
		run, _ := runs.GetOrCreateActive(user.ID(), models.KindCollection, 100)
		run.Start()
		run.SetTotal(614)
		run.SetProcessed(614)
		run.SetAdded(12)
		run.SetUpdated(600)
		run.SetRemoved(2)
		run.Complete()
		if err := runs.Update(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		status, err := BuildStatus(runs, user.ID(), models.KindCollection)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "collection: synced just now, 614 releases (12 added, 600 updated, 2 removed)"
		if status.Message != want {
			t.Errorf("unexpected message:\n got %q\nwant %q", status.Message, want)
		}
	})

	t.Run("paused run names the cursor", func(t *testing.T) {
		run, _ := runs.GetOrCreateActive(user.ID(), models.KindInventory, 100)
		run.Start()
		run.SetTotal(40)
		run.SetProcessed(20)
		run.SetCurrentPage(3)
		run.Pause()
		if err := runs.Update(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		status, err := BuildStatus(runs, user.ID(), models.KindInventory)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "inventory: paused at page 3, 20 of 40 listings synced. Resume with --resume"
		if status.Message != want {
			t.Errorf("unexpected message:\n got %q\nwant %q", status.Message, want)
		}
	})
}
