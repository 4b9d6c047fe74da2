// Package queue provides the flat, time-gated playback queue derived from a catalog.
package queue

import (
	"time"

	"github.com/osa030/releasebox/internal/domain/release"
)

// Entry is a read-only projection of one unlocked track.
// (ReleaseIndex, TrackIndex) identifies the entry within one load cycle.
type Entry struct {
	ReleaseIndex  int       // Index of the parent release in the catalog
	TrackIndex    int       // Index of the track within the release
	Title         string    // Track title
	ReleaseTitle  string    // Parent release title
	ReleaseDate   time.Time // Parent release date
	AudioRef      string    // Audio source reference
	CoverImageRef string    // Parent release cover
}

// SameTrack reports whether two entries point at the same track,
// independent of the catalog position they were projected from.
func (e Entry) SameTrack(o Entry) bool {
	return e.ReleaseTitle == o.ReleaseTitle &&
		e.ReleaseDate.Equal(o.ReleaseDate) &&
		e.TrackIndex == o.TrackIndex &&
		e.AudioRef == o.AudioRef
}

// Queue is the ordered sequence of playable entries.
type Queue []Entry

// Build derives the flat queue from the catalog at time now.
// Locked releases contribute no entries; unlocked releases contribute
// every track in track order.
func Build(catalog release.Catalog, now time.Time) Queue {
	q := make(Queue, 0)
	for rIdx := range catalog {
		rel := &catalog[rIdx]
		if !rel.IsPlayable(now) {
			continue
		}
		for tIdx, t := range rel.Tracks {
			q = append(q, Entry{
				ReleaseIndex:  rIdx,
				TrackIndex:    tIdx,
				Title:         t.Title,
				ReleaseTitle:  rel.Title,
				ReleaseDate:   rel.ReleaseDate,
				AudioRef:      t.AudioRef,
				CoverImageRef: rel.CoverImageRef,
			})
		}
	}
	return q
}

// Len returns the number of entries.
func (q Queue) Len() int {
	return len(q)
}

// IsEmpty returns true if the queue has no entries.
func (q Queue) IsEmpty() bool {
	return len(q) == 0
}

// At returns the entry at index i.
func (q Queue) At(i int) (Entry, bool) {
	if i < 0 || i >= len(q) {
		return Entry{}, false
	}
	return q[i], true
}

// IndexOf returns the queue index of the entry for (releaseIndex, trackIndex),
// or -1 if that track is not queued.
func (q Queue) IndexOf(releaseIndex, trackIndex int) int {
	for i, e := range q {
		if e.ReleaseIndex == releaseIndex && e.TrackIndex == trackIndex {
			return i
		}
	}
	return -1
}

// Locate returns the index of the entry that points at the same track as e, or -1.
func (q Queue) Locate(e Entry) int {
	for i, o := range q {
		if o.SameTrack(e) {
			return i
		}
	}
	return -1
}
