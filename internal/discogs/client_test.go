package discogs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stylus-audio/stylus/internal/shared"
)

func testConfig() (shared.DiscogsConfig, shared.SyncConfig) {
	creds := shared.DiscogsConfig{
		Username:      "crate_digger",
		PersonalToken: "tok-123",
	}
	// Effectively unthrottled so tests stay fast.
	sync := shared.SyncConfig{PerPage: 2, MinRequestIntervalMS: 1, RequestTimeoutSeconds: 5}
	return creds, sync
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	creds, sync := testConfig()
	client, err := NewClient(creds, sync)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	client.SetBaseURL(server.URL)

	return client
}

func TestNewClient_CredentialValidation(t *testing.T) {
	_, sync := testConfig()

	t.Run("missing credentials", func(t *testing.T) {
		_, err := NewClient(shared.DiscogsConfig{Username: "crate_digger"}, sync)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("missing username", func(t *testing.T) {
		_, err := NewClient(shared.DiscogsConfig{PersonalToken: "tok"}, sync)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("ambiguous credentials", func(t *testing.T) {
		creds := shared.DiscogsConfig{Username: "crate_digger", PersonalToken: "tok", ConsumerKey: "key", ConsumerSecret: "sec"}
		_, err := NewClient(creds, sync)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("consumer pair accepted", func(t *testing.T) {
		creds := shared.DiscogsConfig{Username: "crate_digger", ConsumerKey: "key", ConsumerSecret: "sec"}
		if _, err := NewClient(creds, sync); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestClient_Identity(t *testing.T) {
	var gotAuth, gotAgent string

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		if r.URL.Path != "/oauth/identity" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"id": 1, "username": "crate_digger", "consumer_name": "stylus"}`)
	}))

	identity, err := client.Identity(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if identity.Username != "crate_digger" {
		t.Errorf("expected username crate_digger, got %q", identity.Username)
	}
	if gotAuth != "Discogs token=tok-123" {
		t.Errorf("unexpected auth header: %q", gotAuth)
	}
	if gotAgent == "" {
		t.Error("expected a User-Agent header")
	}
}

func TestClient_ErrorClassification(t *testing.T) {
	t.Run("429 yields RateLimitError with Retry-After", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
		}))

		_, err := client.Identity(context.Background())

		var rateErr *RateLimitError
		if !errors.As(err, &rateErr) {
			t.Fatalf("expected RateLimitError, got %v", err)
		}
		if rateErr.RetryAfter != 30*time.Second {
			t.Errorf("expected 30s retry, got %s", rateErr.RetryAfter)
		}
	})

	t.Run("429 without header uses the default pause", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))

		_, err := client.Identity(context.Background())

		var rateErr *RateLimitError
		if !errors.As(err, &rateErr) {
			t.Fatalf("expected RateLimitError, got %v", err)
		}
		if rateErr.RetryAfter != defaultRetryAfter {
			t.Errorf("expected %s retry, got %s", defaultRetryAfter, rateErr.RetryAfter)
		}
	})

	t.Run("401 yields AuthError", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid token", http.StatusUnauthorized)
		}))

		_, err := client.Identity(context.Background())

		var authErr *AuthError
		if !errors.As(err, &authErr) {
			t.Fatalf("expected AuthError, got %v", err)
		}
		if authErr.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", authErr.StatusCode)
		}
	})

	t.Run("500 yields APIError", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream broke", http.StatusInternalServerError)
		}))

		_, err := client.Identity(context.Background())

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
	})
}

// collectionHandler serves a two-page collection of three releases.
func collectionHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/crate_digger/collection/folders/0/releases" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{
				"pagination": {"page": 1, "pages": 2, "per_page": 2, "items": 3},
				"releases": [
					{"id": 42, "basic_information": {"id": 42, "title": "Untrue"}},
					{"id": 43, "basic_information": {"id": 43, "title": "Burial"}}
				]
			}`)
		case "2":
			fmt.Fprint(w, `{
				"pagination": {"page": 2, "pages": 2, "per_page": 2, "items": 3},
				"releases": [
					{"id": 44, "basic_information": {"id": 44, "title": "Rival Dealer"}}
				]
			}`)
		default:
			t.Errorf("unexpected page: %s", r.URL.Query().Get("page"))
		}
	})
}

func TestCollectionIterator(t *testing.T) {
	client := newTestClient(t, collectionHandler(t))
	ctx := context.Background()

	it := NewCollectionIterator(client, 1, 2)

	var ids []int64
	for {
		item, ok, err := it.Next(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			break
		}
		ids = append(ids, item.ID)
	}

	if len(ids) != 3 || ids[0] != 42 || ids[2] != 44 {
		t.Errorf("unexpected ids: %v", ids)
	}
	if it.Total() != 3 {
		t.Errorf("expected total 3, got %d", it.Total())
	}
	if it.Processed() != 3 {
		t.Errorf("expected processed 3, got %d", it.Processed())
	}
	if it.Page() != 2 {
		t.Errorf("expected final page 2, got %d", it.Page())
	}
}

func TestCollectionIterator_ResumeMidListing(t *testing.T) {
	client := newTestClient(t, collectionHandler(t))
	ctx := context.Background()

	it := NewCollectionIterator(client, 2, 2)

	if it.Processed() != 2 {
		t.Errorf("expected processed preseeded to 2, got %d", it.Processed())
	}

	item, ok, err := it.Next(ctx)
	if err != nil || !ok {
		t.Fatalf("expected an item, got ok=%v err=%v", ok, err)
	}
	if item.ID != 44 {
		t.Errorf("expected release 44, got %d", item.ID)
	}
	if it.Processed() != 3 {
		t.Errorf("expected processed 3, got %d", it.Processed())
	}

	if _, ok, _ := it.Next(ctx); ok {
		t.Error("expected exhaustion after the last page")
	}
}

func TestCollectionIterator_RetriesFailedPage(t *testing.T) {
	var calls int
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "5")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{
			"pagination": {"page": 1, "pages": 1, "per_page": 2, "items": 1},
			"releases": [{"id": 42, "basic_information": {"id": 42, "title": "Untrue"}}]
		}`)
	}))
	ctx := context.Background()

	it := NewCollectionIterator(client, 1, 2)

	_, ok, err := it.Next(ctx)
	var rateErr *RateLimitError
	if ok || !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitError, got ok=%v err=%v", ok, err)
	}
	if it.Page() != 1 {
		t.Errorf("iterator must stay on the failed page, got %d", it.Page())
	}

	item, ok, err := it.Next(ctx)
	if err != nil || !ok {
		t.Fatalf("expected retry to succeed, got ok=%v err=%v", ok, err)
	}
	if item.ID != 42 {
		t.Errorf("expected release 42, got %d", item.ID)
	}
}

func TestInventoryIterator(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/crate_digger/inventory" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `{
			"pagination": {"page": 1, "pages": 1, "per_page": 2, "items": 1},
			"listings": [{
				"id": 9001,
				"status": "For Sale",
				"condition": "Very Good Plus (VG+)",
				"price": {"currency": "GBP", "value": 18.0},
				"release": {"id": 42, "title": "Untrue", "artist": "Burial (2)"}
			}]
		}`)
	}))
	ctx := context.Background()

	it := NewInventoryIterator(client, 1, 2)

	listing, ok, err := it.Next(ctx)
	if err != nil || !ok {
		t.Fatalf("expected a listing, got ok=%v err=%v", ok, err)
	}
	if listing.ID != 9001 || listing.StatusKey() != "for_sale" {
		t.Errorf("unexpected listing: %+v", listing)
	}
	if listing.ArtistName() != "Burial" {
		t.Errorf("expected cleaned artist, got %q", listing.ArtistName())
	}
	if listing.Price.Display() != "18.00 GBP" {
		t.Errorf("unexpected price display: %q", listing.Price.Display())
	}
}

func TestParseHelpers(t *testing.T) {
	t.Run("CleanArtistName", func(t *testing.T) {
		if got := CleanArtistName("Burial (2)"); got != "Burial" {
			t.Errorf("expected Burial, got %q", got)
		}
		if got := CleanArtistName("Four Tet"); got != "Four Tet" {
			t.Errorf("expected untouched name, got %q", got)
		}
	})

	t.Run("joinArtists honors join phrases", func(t *testing.T) {
		detail := &ReleaseDetail{Artists: []Artist{
			{Name: "Burial (2)", Join: "&"},
			{Name: "Four Tet"},
		}}
		if got := detail.ArtistNames(); got != "Burial & Four Tet" {
			t.Errorf("unexpected credit: %q", got)
		}
	})

	t.Run("PlayableTracks drops headings", func(t *testing.T) {
		detail := &ReleaseDetail{Tracklist: []TrackEntry{
			{Type: "heading", Title: "Side A"},
			{Type: "track", Position: "A1", Title: "Archangel"},
			{Type: "index", Title: "Medley"},
			{Type: "track", Position: "A2", Title: "Near Dark"},
		}}
		tracks := detail.PlayableTracks()
		if len(tracks) != 2 || tracks[0].Position != "A1" || tracks[1].Position != "A2" {
			t.Errorf("unexpected tracks: %+v", tracks)
		}
	})

	t.Run("CoverImage prefers primary", func(t *testing.T) {
		detail := &ReleaseDetail{Images: []Image{
			{Type: "secondary", URI: "https://img/back.jpg"},
			{Type: "primary", URI: "https://img/front.jpg"},
		}}
		if got := detail.CoverImage(); got != "https://img/front.jpg" {
			t.Errorf("unexpected cover: %q", got)
		}
	})
}
