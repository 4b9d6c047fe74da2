package release

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// ErrInvalidRelease is returned when a descriptor is missing required fields
// or carries a release date that cannot be parsed.
var ErrInvalidRelease = errors.New("invalid release")

var validate = validator.New()

// dateLayouts are tried in order. Layouts without a zone are interpreted in
// the local time zone, except the date-only form which is UTC midnight.
var dateLayouts = []struct {
	layout string
	utc    bool
}{
	{time.RFC3339Nano, false},
	{time.RFC3339, false},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02 15:04", false},
	{"2006-01-02", true},
}

// Normalize validates a raw descriptor and produces a canonical Release.
// The returned error wraps ErrInvalidRelease.
func Normalize(d Descriptor) (Release, error) {
	if d.DecodeErr != nil {
		return Release{}, errors.Mark(errors.Wrapf(d.DecodeErr, "descriptor %q", d.Origin), ErrInvalidRelease)
	}
	if err := validate.Struct(d); err != nil {
		return Release{}, errors.Mark(errors.Wrapf(err, "descriptor %q", d.Origin), ErrInvalidRelease)
	}

	releaseDate, err := ParseReleaseDate(d.ReleaseDate)
	if err != nil {
		return Release{}, errors.Mark(errors.Wrapf(err, "descriptor %q", d.Origin), ErrInvalidRelease)
	}

	kind := strings.TrimSpace(d.Type)
	if kind == "" {
		kind = DefaultKind
	}

	tracks := make([]Track, len(d.Tracks))
	for i, t := range d.Tracks {
		tracks[i] = Track{
			Title:    t.Title,
			AudioRef: t.AudioURL,
		}
	}

	return Release{
		Title:         d.Title,
		ReleaseDate:   releaseDate,
		CoverImageRef: d.CoverURL,
		Kind:          kind,
		Tracks:        tracks,
	}, nil
}

// ParseReleaseDate parses a release date string into an absolute UTC instant.
func ParseReleaseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("release date is empty")
	}

	for _, l := range dateLayouts {
		loc := time.Local
		if l.utc {
			loc = time.UTC
		}
		if t, err := time.ParseInLocation(l.layout, s, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Newf("unrecognized release date %q", s)
}

// FormatReleaseDate returns the canonical string form of a release date.
func FormatReleaseDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
