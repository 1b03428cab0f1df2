package models

import (
	"fmt"
)

// Track is an individual track on a release.
//
// Position, title and duration are canonical Discogs metadata; everything else is
// user-entered DJ metadata that a sync must never touch. Tracks match across syncs
// by their verbatim position key ("A1", "B2", ...).
type Track struct {
	base
	releaseID string

	// Canonical Discogs metadata
	position string
	title    string
	duration string

	// DJ metadata (user-entered)
	bpm        int
	musicalKey string
	camelot    string
	energy     int
	playable   bool
	notes      string
}

// NewTrack creates a Track belonging to the given release.
func NewTrack(sequence int, releaseID, position, title, duration string) *Track {
	return &Track{
		base:      newBase(sequence),
		releaseID: releaseID,
		position:  position,
		title:     title,
		duration:  duration,
	}
}

func (t *Track) ReleaseID() string { return t.releaseID }
func (t *Track) Position() string  { return t.position }
func (t *Track) Title() string     { return t.title }
func (t *Track) Duration() string  { return t.duration }

// SetMetadata overwrites the canonical fields with fresh remote values.
func (t *Track) SetMetadata(title, duration string) {
	t.title = title
	t.duration = duration
}

func (t *Track) BPM() int                { return t.bpm }
func (t *Track) SetBPM(bpm int)          { t.bpm = bpm }
func (t *Track) MusicalKey() string      { return t.musicalKey }
func (t *Track) SetMusicalKey(k string)  { t.musicalKey = k }
func (t *Track) Camelot() string         { return t.camelot }
func (t *Track) SetCamelot(c string)     { t.camelot = c }
func (t *Track) Energy() int             { return t.energy }
func (t *Track) SetEnergy(e int)         { t.energy = e }
func (t *Track) Playable() bool          { return t.playable }
func (t *Track) SetPlayable(p bool)      { t.playable = p }
func (t *Track) Notes() string           { return t.notes }
func (t *Track) SetNotes(notes string)   { t.notes = notes }

// HasUserData reports whether any user-entered field is set. Tracks with user data
// are preserved as orphans when they disappear from the remote tracklist.
func (t *Track) HasUserData() bool {
	return t.bpm != 0 ||
		t.musicalKey != "" ||
		t.camelot != "" ||
		t.energy != 0 ||
		t.playable ||
		t.notes != ""
}

// Validate checks required fields and user-metadata ranges.
func (t *Track) Validate() error {
	if t.releaseID == "" {
		return fmt.Errorf("release ID is required")
	}
	if t.title == "" {
		return fmt.Errorf("title is required")
	}
	if t.bpm != 0 && (t.bpm < 20 || t.bpm > 300) {
		return fmt.Errorf("bpm out of range: %d", t.bpm)
	}
	if t.energy != 0 && (t.energy < 1 || t.energy > 10) {
		return fmt.Errorf("energy out of range: %d", t.energy)
	}
	return nil
}
