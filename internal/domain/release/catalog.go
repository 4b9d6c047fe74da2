package release

import (
	"sort"
	"time"
)

// Catalog is the ordered set of releases for one load cycle,
// sorted by release date descending.
type Catalog []Release

// Assemble orders validated releases by release date, newest first.
// Releases sharing a release date keep their input order.
// The input slice is not modified.
func Assemble(releases []Release) Catalog {
	catalog := make(Catalog, len(releases))
	copy(catalog, releases)
	sort.SliceStable(catalog, func(i, j int) bool {
		return catalog[i].ReleaseDate.After(catalog[j].ReleaseDate)
	})
	return catalog
}

// Len returns the number of releases in the catalog.
func (c Catalog) Len() int {
	return len(c)
}

// At returns the release at index i.
func (c Catalog) At(i int) (*Release, bool) {
	if i < 0 || i >= len(c) {
		return nil, false
	}
	return &c[i], true
}

// Playable returns the per-release playable flags at time now, in catalog order.
func (c Catalog) Playable(now time.Time) []bool {
	flags := make([]bool, len(c))
	for i := range c {
		flags[i] = c[i].IsPlayable(now)
	}
	return flags
}

// UpcomingCount returns the number of releases still locked at time now.
func (c Catalog) UpcomingCount(now time.Time) int {
	n := 0
	for i := range c {
		if c[i].IsLocked(now) {
			n++
		}
	}
	return n
}
