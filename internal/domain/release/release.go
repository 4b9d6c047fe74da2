// Package release provides the Release domain entity and the catalog built from it.
package release

import "time"

// DefaultKind is used when a descriptor does not name a release kind.
const DefaultKind = "release"

// Track represents a single playable track of a release.
// Tracks are owned by their release and addressed by position.
type Track struct {
	Title    string // Track title
	AudioRef string // Audio source reference (URL or URI)
}

// Release represents a titled collection of tracks gated by a release date.
// A Release is immutable once produced by Normalize.
type Release struct {
	Title         string    // Release title
	ReleaseDate   time.Time // Absolute instant the release unlocks (UTC)
	CoverImageRef string    // Cover image reference
	Kind          string    // e.g. "single", "album"; DefaultKind when unset
	Tracks        []Track   // Ordered, non-empty
}

// IsPlayable returns true if the release date has passed relative to now.
func (r *Release) IsPlayable(now time.Time) bool {
	return !r.ReleaseDate.After(now)
}

// IsLocked returns true if the release date is still in the future.
func (r *Release) IsLocked(now time.Time) bool {
	return r.ReleaseDate.After(now)
}

// TrackCount returns the number of tracks in the release.
func (r *Release) TrackCount() int {
	return len(r.Tracks)
}

// Descriptor is a raw release descriptor as loaded from a release source.
// Field names on the wire follow the release files served to the artist page.
type Descriptor struct {
	Title       string            `json:"title" yaml:"title" mapstructure:"title" validate:"required"`
	ReleaseDate string            `json:"releaseDate" yaml:"releaseDate" mapstructure:"releaseDate" validate:"required"`
	CoverURL    string            `json:"coverUrl" yaml:"coverUrl" mapstructure:"coverUrl" validate:"required"`
	Type        string            `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type"`
	Tracks      []TrackDescriptor `json:"tracks" yaml:"tracks" mapstructure:"tracks" validate:"required,min=1,dive"`

	// Origin identifies where the descriptor came from (path, URL, album id).
	// It is used for logging only.
	Origin string `json:"-" yaml:"-" mapstructure:"-"`

	// DecodeErr is set when the entry could not be mapped onto a descriptor.
	// Normalize rejects such descriptors.
	DecodeErr error `json:"-" yaml:"-" mapstructure:"-" validate:"-"`
}

// TrackDescriptor is a raw track entry inside a Descriptor.
type TrackDescriptor struct {
	Title    string `json:"title" yaml:"title" mapstructure:"title"`
	AudioURL string `json:"audioUrl" yaml:"audioUrl" mapstructure:"audioUrl" validate:"required"`
}
