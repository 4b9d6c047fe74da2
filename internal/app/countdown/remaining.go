// Package countdown provides the unlock countdown for the nearest future release.
package countdown

import (
	"fmt"
	"time"

	"github.com/osa030/releasebox/internal/domain/release"
)

// Remaining is a time-remaining breakdown for display.
// The breakdown fields never go negative; Total keeps the raw value.
type Remaining struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
	Total   time.Duration // Raw remaining time (target - now), may be negative
}

// Breakdown computes the remaining time from now until target.
func Breakdown(target, now time.Time) Remaining {
	total := target.Sub(now)

	delta := total
	if delta < 0 {
		delta = 0
	}

	days := int(delta / (24 * time.Hour))
	delta -= time.Duration(days) * 24 * time.Hour
	hours := int(delta / time.Hour)
	delta -= time.Duration(hours) * time.Hour
	minutes := int(delta / time.Minute)
	delta -= time.Duration(minutes) * time.Minute
	seconds := int(delta / time.Second)

	return Remaining{
		Days:    days,
		Hours:   hours,
		Minutes: minutes,
		Seconds: seconds,
		Total:   total,
	}
}

// Elapsed returns true once the target instant has been reached.
func (r Remaining) Elapsed() bool {
	return r.Total <= 0
}

// String renders the breakdown as "Nd HH:MM:SS", omitting the day part when zero.
func (r Remaining) String() string {
	clock := fmt.Sprintf("%02d:%02d:%02d", r.Hours, r.Minutes, r.Seconds)
	if r.Days > 0 {
		return fmt.Sprintf("%dd %s", r.Days, clock)
	}
	return clock
}

// Target is the release the countdown runs against.
type Target struct {
	Index       int       // Catalog index of the release
	Title       string    // Release title
	ReleaseDate time.Time // Unlock instant
}

// key identifies a target across load cycles, where catalog indices are not stable.
func (t Target) key() string {
	return t.Title + "@" + t.ReleaseDate.UTC().Format(time.RFC3339Nano)
}

// SelectTarget returns the locked release with the earliest release date.
// Releases sharing that date resolve to the first one in catalog order.
// Returns false when every release is unlocked.
func SelectTarget(catalog release.Catalog, now time.Time) (Target, bool) {
	best := -1
	for i := range catalog {
		rel := &catalog[i]
		if !rel.ReleaseDate.After(now) {
			continue
		}
		if best < 0 || rel.ReleaseDate.Before(catalog[best].ReleaseDate) {
			best = i
		}
	}
	if best < 0 {
		return Target{}, false
	}
	return Target{
		Index:       best,
		Title:       catalog[best].Title,
		ReleaseDate: catalog[best].ReleaseDate,
	}, true
}
