package countdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/releasebox/internal/domain/release"
)

func TestBreakdown(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		target   time.Time
		expected Remaining
		text     string
	}{
		{
			name:     "days hours minutes seconds",
			target:   now.Add(2*24*time.Hour + 3*time.Hour + 4*time.Minute + 5*time.Second + 900*time.Millisecond),
			expected: Remaining{Days: 2, Hours: 3, Minutes: 4, Seconds: 5, Total: 2*24*time.Hour + 3*time.Hour + 4*time.Minute + 5*time.Second + 900*time.Millisecond},
			text:     "2d 03:04:05",
		},
		{
			name:     "under a day omits days",
			target:   now.Add(59 * time.Second),
			expected: Remaining{Seconds: 59, Total: 59 * time.Second},
			text:     "00:00:59",
		},
		{
			name:     "exactly now",
			target:   now,
			expected: Remaining{},
			text:     "00:00:00",
		},
		{
			name:     "past target clamps to zero",
			target:   now.Add(-90 * time.Minute),
			expected: Remaining{Total: -90 * time.Minute},
			text:     "00:00:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Breakdown(tt.target, now)
			assert.Equal(t, tt.expected, r)
			assert.Equal(t, tt.text, r.String())
		})
	}
}

func TestRemaining_Elapsed(t *testing.T) {
	now := time.Now()
	assert.False(t, Breakdown(now.Add(time.Second), now).Elapsed())
	assert.True(t, Breakdown(now, now).Elapsed())
	assert.True(t, Breakdown(now.Add(-time.Second), now).Elapsed())
}

func TestSelectTarget(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rel := func(title string, offset time.Duration) release.Release {
		return release.Release{Title: title, ReleaseDate: now.Add(offset)}
	}

	tests := []struct {
		name      string
		catalog   release.Catalog
		wantOK    bool
		wantTitle string
		wantIndex int
	}{
		{
			name:    "empty catalog",
			catalog: nil,
			wantOK:  false,
		},
		{
			name:    "all unlocked",
			catalog: release.Assemble([]release.Release{rel("a", -time.Hour), rel("b", -2*time.Hour)}),
			wantOK:  false,
		},
		{
			name:    "release at exactly now is unlocked",
			catalog: release.Assemble([]release.Release{rel("now", 0)}),
			wantOK:  false,
		},
		{
			name:      "nearest future release",
			catalog:   release.Assemble([]release.Release{rel("far", 72*time.Hour), rel("past", -time.Hour), rel("soon", time.Hour)}),
			wantOK:    true,
			wantTitle: "soon",
			wantIndex: 1,
		},
		{
			name:      "tie resolves to first in catalog order",
			catalog:   release.Assemble([]release.Release{rel("first", time.Hour), rel("second", time.Hour), rel("later", 2*time.Hour)}),
			wantOK:    true,
			wantTitle: "first",
			wantIndex: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, ok := SelectTarget(tt.catalog, now)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantTitle, target.Title)
			assert.Equal(t, tt.wantIndex, target.Index)
		})
	}
}

// collect drains events until the window closes.
func collect(s *Scheduler, window time.Duration) []Event {
	var events []Event
	timeout := time.After(window)
	for {
		select {
		case e, ok := <-s.Events():
			if !ok {
				return events
			}
			events = append(events, e)
		case <-timeout:
			return events
		}
	}
}

func countType(events []Event, typ EventType) int {
	n := 0
	for _, e := range events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func TestScheduler_UnlocksExactlyOnce(t *testing.T) {
	s := NewScheduler(Config{TickInterval: 10 * time.Millisecond})
	defer s.Close()

	target := Target{Title: "R2", ReleaseDate: time.Now().Add(80 * time.Millisecond)}
	require.True(t, s.Arm(target))

	_, _, active := s.Current()
	assert.True(t, active)

	events := collect(s, 400*time.Millisecond)

	assert.Equal(t, 1, countType(events, EventUnlocked))
	assert.Greater(t, countType(events, EventTick), 0, "ticks are emitted while the target is locked")
	assert.Equal(t, EventUnlocked, events[len(events)-1].Type, "no ticks after unlock")
	assert.Equal(t, "R2", events[len(events)-1].Target.Title)

	_, _, active = s.Current()
	assert.False(t, active)
	assert.True(t, s.IsUnlocked(target))
}

func TestScheduler_RearmAfterUnlockIsRejected(t *testing.T) {
	s := NewScheduler(Config{TickInterval: 10 * time.Millisecond})
	defer s.Close()

	target := Target{Title: "R2", ReleaseDate: time.Now().Add(20 * time.Millisecond)}
	require.True(t, s.Arm(target))

	events := collect(s, 200*time.Millisecond)
	require.Equal(t, 1, countType(events, EventUnlocked))

	assert.False(t, s.Arm(target), "an unlocked target is not armed again")
	events = collect(s, 100*time.Millisecond)
	assert.Equal(t, 0, countType(events, EventUnlocked))
}

func TestScheduler_CancelPreventsUnlock(t *testing.T) {
	s := NewScheduler(Config{TickInterval: 10 * time.Millisecond})
	defer s.Close()

	require.True(t, s.Arm(Target{Title: "R2", ReleaseDate: time.Now().Add(50 * time.Millisecond)}))
	s.Cancel()
	s.Cancel()

	events := collect(s, 200*time.Millisecond)
	assert.Equal(t, 0, countType(events, EventUnlocked))

	_, _, active := s.Current()
	assert.False(t, active)
}

func TestScheduler_ArmReplacesPreviousTimer(t *testing.T) {
	s := NewScheduler(Config{TickInterval: 10 * time.Millisecond})
	defer s.Close()

	require.True(t, s.Arm(Target{Title: "soon", ReleaseDate: time.Now().Add(50 * time.Millisecond)}))
	require.True(t, s.Arm(Target{Title: "later", ReleaseDate: time.Now().Add(time.Hour)}))

	events := collect(s, 200*time.Millisecond)
	assert.Equal(t, 0, countType(events, EventUnlocked))
	require.NotEmpty(t, events)
	assert.Equal(t, "later", events[len(events)-1].Target.Title, "only the latest target keeps ticking")

	target, remaining, active := s.Current()
	require.True(t, active)
	assert.Equal(t, "later", target.Title)
	assert.False(t, remaining.Elapsed())
}

func TestScheduler_PastTargetUnlocksImmediately(t *testing.T) {
	s := NewScheduler(Config{TickInterval: time.Hour})
	defer s.Close()

	require.True(t, s.Arm(Target{Title: "late", ReleaseDate: time.Now().Add(-time.Second)}))

	events := collect(s, 100*time.Millisecond)
	require.Len(t, events, 1)
	assert.Equal(t, EventUnlocked, events[0].Type)
	assert.Equal(t, Remaining{Total: events[0].Remaining.Total}, events[0].Remaining, "breakdown clamps to zero")
}

func TestScheduler_InjectedClock(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s := NewScheduler(Config{TickInterval: time.Hour, Now: func() time.Time { return fixed }})
	defer s.Close()

	require.True(t, s.Arm(Target{Title: "R", ReleaseDate: fixed.Add(25 * time.Hour)}))

	_, remaining, active := s.Current()
	require.True(t, active)
	assert.Equal(t, 1, remaining.Days)
	assert.Equal(t, 1, remaining.Hours)
	assert.Equal(t, "1d 01:00:00", remaining.String())
}

func TestScheduler_ArmAfterClose(t *testing.T) {
	s := NewScheduler(Config{})
	s.Close()
	s.Close()

	assert.False(t, s.Arm(Target{Title: "R", ReleaseDate: time.Now().Add(time.Hour)}))
}

func TestScheduler_StaleTickIsNotCurrent(t *testing.T) {
	s := NewScheduler(Config{TickInterval: time.Hour})
	defer s.Close()

	next := func() Event {
		select {
		case e := <-s.Events():
			return e
		case <-time.After(time.Second):
			t.Fatal("no countdown event")
			return Event{}
		}
	}

	require.True(t, s.Arm(Target{Title: "first", ReleaseDate: time.Now().Add(time.Hour)}))
	first := next()
	require.Equal(t, EventTick, first.Type)
	assert.True(t, s.IsCurrent(first.Generation))

	// A tick still buffered from the replaced countdown must be recognisable as stale.
	require.True(t, s.Arm(Target{Title: "second", ReleaseDate: time.Now().Add(time.Hour)}))
	second := next()
	assert.Equal(t, "second", second.Target.Title)
	assert.False(t, s.IsCurrent(first.Generation))
	assert.True(t, s.IsCurrent(second.Generation))

	s.Cancel()
	assert.False(t, s.IsCurrent(second.Generation))
}
