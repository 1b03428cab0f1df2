// package formatter renders sync state and collection data for terminal display
package formatter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stylus-audio/stylus/internal/models"
	"github.com/stylus-audio/stylus/internal/tasks"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// FormatStatus renders a sync status line, colored by run state.
func FormatStatus(status *tasks.Status) string {
	if status.Run == nil {
		return styles.help.Render(status.Message)
	}

	switch status.Run.Status() {
	case models.SyncCompleted:
		return styles.ok.Render(status.Message)
	case models.SyncFailed:
		return styles.err.Render(status.Message)
	case models.SyncPaused:
		return styles.warn.Render(status.Message)
	default:
		return status.Message
	}
}

// FormatHistory renders sync runs as an aligned table, newest first.
func FormatHistory(runs []*models.SyncRun) string {
	if len(runs) == 0 {
		return styles.help.Render("No sync history")
	}

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("%-4s %-12s %-10s %-12s %-22s %s\n",
		"#", "KIND", "STATUS", "PROGRESS", "CHANGES", "STARTED"))

	for _, run := range runs {
		progress := fmt.Sprintf("%d/%d", run.Processed(), run.Total())
		changes := fmt.Sprintf("+%d ~%d -%d", run.Added(), run.Updated(), run.Removed())
		started := ""
		if run.StartedAt() != nil {
			started = run.StartedAt().Format("2006-01-02 15:04")
		}

		buf.WriteString(fmt.Sprintf("%-4d %-12s %-10s %-12s %-22s %s\n",
			run.Sequence(), run.Kind(), run.Status(), progress, changes, started))
	}

	return strings.TrimRight(buf.String(), "\n")
}

// FormatReleases renders collection releases as display lines, flagging removals
// and items listed for sale.
func FormatReleases(releases []*models.Release) string {
	if len(releases) == 0 {
		return styles.help.Render("No releases in collection")
	}

	var buf bytes.Buffer
	for _, release := range releases {
		line := fmt.Sprintf("%s - %s", release.Artist(), release.Title())
		if release.Year() != 0 {
			line += fmt.Sprintf(" (%d)", release.Year())
		}
		if release.Label() != "" {
			line += fmt.Sprintf(" [%s]", release.Label())
		}

		switch {
		case release.IsRemovedFromDiscogs():
			line = styles.err.Render(line + " — removed from Discogs")
		case release.IsForSale():
			line += " " + styles.ok.Render(fmt.Sprintf("for sale %s", release.Price()))
		}

		buf.WriteString(line + "\n")
	}

	return strings.TrimRight(buf.String(), "\n")
}

// FormatListings renders inventory listings, marking sold and removed ones that
// still need the user's attention.
func FormatListings(listings []*models.Listing) string {
	if len(listings) == 0 {
		return styles.help.Render("No inventory listings")
	}

	var buf bytes.Buffer
	for _, listing := range listings {
		line := fmt.Sprintf("%s - %s  %s  %s",
			listing.ReleaseArtist(), listing.ReleaseTitle(), listing.Condition(), listing.Price())

		switch {
		case listing.NeedsAttention():
			line = styles.warn.Render(fmt.Sprintf("! %s (%s)", line, listing.Status()))
		case !listing.IsActive():
			line = styles.help.Render(fmt.Sprintf("%s (%s)", line, listing.Status()))
		}

		buf.WriteString(line + "\n")
	}

	return strings.TrimRight(buf.String(), "\n")
}

// FormatTracks renders a release tracklist alongside the locally entered DJ
// metadata (BPM, key, energy).
func FormatTracks(tracks []*models.Track) string {
	if len(tracks) == 0 {
		return styles.help.Render("No tracks")
	}

	var buf bytes.Buffer
	for _, track := range tracks {
		line := fmt.Sprintf("%-4s %s", track.Position(), track.Title())
		if track.Duration() != "" {
			line += fmt.Sprintf(" (%s)", track.Duration())
		}

		var meta []string
		if track.BPM() != 0 {
			meta = append(meta, fmt.Sprintf("%d bpm", track.BPM()))
		}
		if track.Camelot() != "" {
			meta = append(meta, track.Camelot())
		} else if track.MusicalKey() != "" {
			meta = append(meta, track.MusicalKey())
		}
		if track.Energy() != 0 {
			meta = append(meta, fmt.Sprintf("energy %d", track.Energy()))
		}
		if len(meta) > 0 {
			line += "  " + styles.ok.Render(strings.Join(meta, " / "))
		}
		if track.Notes() != "" {
			line += "  " + styles.help.Render(track.Notes())
		}

		buf.WriteString(line + "\n")
	}

	return strings.TrimRight(buf.String(), "\n")
}
