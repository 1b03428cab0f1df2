package discogs

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Discogs disambiguates duplicate artist names with a numeric suffix ("Burial (2)").
var artistSuffix = regexp.MustCompile(`\s+\(\d+\)$`)

// CleanArtistName strips the Discogs numeric disambiguation suffix.
func CleanArtistName(name string) string {
	return artistSuffix.ReplaceAllString(name, "")
}

// joinArtists renders an artist credit list as a display string, honoring join
// phrases ("feat.", "&") when present.
func joinArtists(artists []Artist) string {
	var b strings.Builder
	for i, artist := range artists {
		b.WriteString(CleanArtistName(artist.Name))
		if i == len(artists)-1 {
			break
		}
		join := strings.TrimSpace(artist.Join)
		if join == "" || join == "," {
			b.WriteString(", ")
		} else {
			b.WriteString(" " + join + " ")
		}
	}
	return b.String()
}

// ArtistNames returns the display artist credit for the release.
func (d *ReleaseDetail) ArtistNames() string { return joinArtists(d.Artists) }

// LabelName returns the primary label, or empty when uncredited.
func (d *ReleaseDetail) LabelName() string {
	if len(d.Labels) == 0 {
		return ""
	}
	return d.Labels[0].Name
}

// CoverImage returns the primary image URI, falling back to the first image.
func (d *ReleaseDetail) CoverImage() string {
	for _, img := range d.Images {
		if img.Type == "primary" {
			return img.URI
		}
	}
	if len(d.Images) > 0 {
		return d.Images[0].URI
	}
	return ""
}

// PlayableTracks filters the tracklist down to actual tracks, dropping heading and
// index rows (side markers, medley containers).
func (d *ReleaseDetail) PlayableTracks() []TrackEntry {
	var tracks []TrackEntry
	for _, entry := range d.Tracklist {
		if entry.Type == "heading" || entry.Type == "index" {
			continue
		}
		tracks = append(tracks, entry)
	}
	return tracks
}

// ArtistNames returns the display artist credit for a collection item summary.
func (b *BasicInformation) ArtistNames() string { return joinArtists(b.Artists) }

// LabelName returns the primary label from the collection summary.
func (b *BasicInformation) LabelName() string {
	if len(b.Labels) == 0 {
		return ""
	}
	return b.Labels[0].Name
}

// Display renders the price as "25.00 GBP", or empty when unset.
func (p Price) Display() string {
	if p.Value == 0 && p.Currency == "" {
		return ""
	}
	return fmt.Sprintf("%.2f %s", p.Value, p.Currency)
}

// StatusKey normalizes the marketplace status label into the lifecycle keys used by
// local storage: for_sale, draft, sold or removed. Unknown labels map to empty.
func (l *ListingItem) StatusKey() string {
	switch strings.ToLower(l.Status) {
	case "for sale":
		return "for_sale"
	case "draft":
		return "draft"
	case "sold":
		return "sold"
	case "expired", "deleted", "suspended":
		return "removed"
	default:
		return ""
	}
}

// PostedTime parses the listing timestamp, returning nil when absent or malformed.
func (l *ListingItem) PostedTime() *time.Time {
	if l.Posted == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, l.Posted)
	if err != nil {
		return nil
	}
	return &t
}

// ArtistName returns the cleaned artist credit cached on the listing.
func (l *ListingItem) ArtistName() string { return CleanArtistName(l.Release.Artist) }
