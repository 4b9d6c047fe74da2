package playback

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/releasebox/internal/domain/queue"
	"github.com/osa030/releasebox/internal/domain/release"
)

// mockMedia records calls and can be told to fail.
type mockMedia struct {
	loaded  []string
	plays   int
	pauses  int
	seeks   []time.Duration
	playErr error
	loadErr error
}

func (m *mockMedia) Load(audioRef string) error {
	m.loaded = append(m.loaded, audioRef)
	return m.loadErr
}

func (m *mockMedia) Play() error {
	m.plays++
	return m.playErr
}

func (m *mockMedia) Pause() error {
	m.pauses++
	return nil
}

func (m *mockMedia) Seek(position time.Duration) error {
	m.seeks = append(m.seeks, position)
	return nil
}

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testCatalog() release.Catalog {
	return release.Assemble([]release.Release{
		{
			Title:       "R1",
			ReleaseDate: now.Add(-24 * time.Hour),
			Tracks: []release.Track{
				{Title: "R1-A", AudioRef: "r1a.mp3"},
				{Title: "R1-B", AudioRef: "r1b.mp3"},
			},
		},
		{
			Title:       "R2",
			ReleaseDate: now.Add(24 * time.Hour),
			Tracks:      []release.Track{{Title: "R2-A", AudioRef: "r2a.mp3"}},
		},
	})
}

func newTestSession(policy ReloadPolicy) (*Session, *mockMedia) {
	m := &mockMedia{}
	s := NewSession(m, Config{ReloadPolicy: policy})
	s.Replace(queue.Build(testCatalog(), now))
	return s, m
}

func TestSession_InitialState(t *testing.T) {
	s, m := newTestSession(ReloadRelocate)
	defer s.Close()

	st := s.Status()
	assert.Equal(t, StateEmpty, st.State)
	assert.Equal(t, -1, st.CurrentIndex)
	assert.Nil(t, st.Entry)
	assert.False(t, st.RatioKnown)
	assert.Equal(t, 2, st.QueueLength)
	assert.Empty(t, m.loaded, "populating the queue does not start playback")
}

func TestSession_PlayIndex(t *testing.T) {
	s, m := newTestSession(ReloadRelocate)
	defer s.Close()

	require.NoError(t, s.PlayIndex(1))

	assert.Equal(t, 1, s.CurrentIndex())
	assert.Equal(t, StatePlaying, s.GetState())
	assert.Equal(t, []string{"r1b.mp3"}, m.loaded)
	assert.Equal(t, 1, m.plays)
}

func TestSession_PlayIndex_OutOfRange(t *testing.T) {
	s, m := newTestSession(ReloadRelocate)
	defer s.Close()

	require.NoError(t, s.PlayIndex(0))

	for _, i := range []int{-1, 2, 100} {
		err := s.PlayIndex(i)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange), "index %d: %v", i, err)
		assert.Equal(t, 0, s.CurrentIndex(), "out-of-range play does not mutate the index")
	}
	assert.Len(t, m.loaded, 1)
}

func TestSession_PlayIndex_EmptyQueue(t *testing.T) {
	s := NewSession(&mockMedia{}, Config{})
	defer s.Close()

	assert.True(t, errors.Is(s.PlayIndex(0), ErrQueueEmpty))
	assert.True(t, errors.Is(s.TogglePlayPause(), ErrQueueEmpty))
	assert.True(t, errors.Is(s.SeekRatio(0.5), ErrNoTrack))
	s.OnTrackEnded()
	assert.Equal(t, StateEmpty, s.GetState())
	assert.Equal(t, -1, s.CurrentIndex())
}

func TestSession_PlayFailureKeepsPlayingIntent(t *testing.T) {
	m := &mockMedia{playErr: errors.New("autoplay blocked")}
	s := NewSession(m, Config{})
	defer s.Close()
	s.Replace(queue.Build(testCatalog(), now))

	require.NoError(t, s.PlayIndex(0))
	assert.Equal(t, StatePlaying, s.GetState())
	assert.Equal(t, 0, s.CurrentIndex())
}

func TestSession_LoadFailureSkipsPlay(t *testing.T) {
	m := &mockMedia{loadErr: errors.New("bad source")}
	s := NewSession(m, Config{})
	defer s.Close()
	s.Replace(queue.Build(testCatalog(), now))

	require.NoError(t, s.PlayIndex(0))
	assert.Equal(t, StatePlaying, s.GetState())
	assert.Equal(t, 0, m.plays)
}

func TestSession_PlayEntry(t *testing.T) {
	s, m := newTestSession(ReloadRelocate)
	defer s.Close()

	// R1 sits at catalog index 1 because R2 is newer.
	require.NoError(t, s.PlayEntry(1, 1))
	assert.Equal(t, 1, s.CurrentIndex())
	assert.Equal(t, []string{"r1b.mp3"}, m.loaded)

	err := s.PlayEntry(0, 0)
	assert.True(t, errors.Is(err, ErrTrackNotQueued), "locked release is not queued")
	assert.Equal(t, 1, s.CurrentIndex())
}

func TestSession_TogglePlayPause(t *testing.T) {
	s, m := newTestSession(ReloadRelocate)
	defer s.Close()

	require.NoError(t, s.TogglePlayPause())
	assert.Equal(t, 0, s.CurrentIndex(), "toggle from Empty plays the first entry")
	assert.Equal(t, StatePlaying, s.GetState())

	require.NoError(t, s.TogglePlayPause())
	assert.Equal(t, StatePaused, s.GetState())
	assert.Equal(t, 1, m.pauses)

	require.NoError(t, s.TogglePlayPause())
	assert.Equal(t, StatePlaying, s.GetState())
	assert.Equal(t, 2, m.plays)
	assert.Equal(t, 0, s.CurrentIndex())
}

func TestSession_OnTrackEnded_AutoAdvance(t *testing.T) {
	s, m := newTestSession(ReloadRelocate)
	defer s.Close()

	require.NoError(t, s.PlayIndex(0))
	s.OnTrackEnded()

	assert.Equal(t, 1, s.CurrentIndex())
	assert.Equal(t, StatePlaying, s.GetState())
	assert.Equal(t, []string{"r1a.mp3", "r1b.mp3"}, m.loaded)
}

func TestSession_OnTrackEnded_EndOfQueue(t *testing.T) {
	s, m := newTestSession(ReloadRelocate)
	defer s.Close()

	require.NoError(t, s.PlayIndex(1))
	s.OnTrackEnded()

	assert.Equal(t, 1, s.CurrentIndex(), "no advance past the end")
	assert.Equal(t, StatePaused, s.GetState())
	assert.Len(t, m.loaded, 1, "no wraparound")

	s.OnTrackEnded()
	assert.Equal(t, 1, s.CurrentIndex())
}

func TestSession_SeekRatio(t *testing.T) {
	s, m := newTestSession(ReloadRelocate)
	defer s.Close()

	require.NoError(t, s.PlayIndex(0))

	err := s.SeekRatio(0.5)
	assert.True(t, errors.Is(err, ErrDurationUnknown), "seek is a no-op before duration is known")
	assert.Empty(t, m.seeks)

	s.ReportProgress(10*time.Second, 200*time.Second)
	require.NoError(t, s.SeekRatio(0.25))
	assert.Equal(t, []time.Duration{50 * time.Second}, m.seeks)

	st := s.Status()
	require.True(t, st.RatioKnown)
	assert.InDelta(t, 0.25, st.Ratio, 1e-9)

	assert.True(t, errors.Is(s.SeekRatio(-0.1), ErrInvalidRatio))
	assert.True(t, errors.Is(s.SeekRatio(1.5), ErrInvalidRatio))
}

func TestSession_ReportProgress(t *testing.T) {
	s, _ := newTestSession(ReloadRelocate)
	defer s.Close()

	s.ReportProgress(5*time.Second, 10*time.Second)
	assert.False(t, s.Status().RatioKnown, "progress is ignored while Empty")

	require.NoError(t, s.PlayIndex(0))
	s.ReportProgress(5*time.Second, 0)
	assert.False(t, s.Status().RatioKnown, "unknown duration leaves the ratio undefined")

	s.ReportProgress(5*time.Second, 10*time.Second)
	st := s.Status()
	require.True(t, st.RatioKnown)
	assert.InDelta(t, 0.5, st.Ratio, 1e-9)

	require.NoError(t, s.PlayIndex(1))
	assert.False(t, s.Status().RatioKnown, "a new track resets the known duration")
}

func TestSession_ReportPlaying(t *testing.T) {
	s, _ := newTestSession(ReloadRelocate)
	defer s.Close()

	s.ReportPlaying(true)
	assert.Equal(t, StateEmpty, s.GetState())

	require.NoError(t, s.PlayIndex(0))
	s.ReportPlaying(false)
	assert.Equal(t, StatePaused, s.GetState())
	s.ReportPlaying(true)
	assert.Equal(t, StatePlaying, s.GetState())
}

func TestSession_ReportError(t *testing.T) {
	s, _ := newTestSession(ReloadRelocate)
	defer s.Close()

	require.NoError(t, s.PlayIndex(0))
	s.ReportError(errors.New("decode error"))
	assert.Equal(t, StatePlaying, s.GetState())
	assert.Equal(t, 0, s.CurrentIndex())
}

func TestSession_Replace_Relocate(t *testing.T) {
	s, m := newTestSession(ReloadRelocate)
	defer s.Close()

	require.NoError(t, s.PlayIndex(1)) // R1-B
	s.ReportProgress(30*time.Second, 120*time.Second)

	// R2 unlocks and is prepended to the queue.
	s.Replace(queue.Build(testCatalog(), now.Add(48*time.Hour)))

	st := s.Status()
	assert.Equal(t, 2, st.CurrentIndex)
	require.NotNil(t, st.Entry)
	assert.Equal(t, "R1-B", st.Entry.Title)
	assert.Equal(t, StatePlaying, st.State)
	assert.Equal(t, 3, st.QueueLength)
	assert.Equal(t, 30*time.Second, st.Position, "relocated track keeps its position")
	assert.Equal(t, 0, m.pauses)
}

func TestSession_Replace_RelocateMissingTrackResets(t *testing.T) {
	s, m := newTestSession(ReloadRelocate)
	defer s.Close()

	require.NoError(t, s.PlayIndex(0))
	s.Replace(queue.Queue{})

	st := s.Status()
	assert.Equal(t, StateEmpty, st.State)
	assert.Equal(t, -1, st.CurrentIndex)
	assert.Equal(t, 1, m.pauses)
}

func TestSession_Replace_Reset(t *testing.T) {
	s, _ := newTestSession(ReloadReset)
	defer s.Close()

	require.NoError(t, s.PlayIndex(1))
	s.Replace(queue.Build(testCatalog(), now.Add(48*time.Hour)))

	assert.Equal(t, StateEmpty, s.GetState())
	assert.Equal(t, -1, s.CurrentIndex())
}

func TestSession_Events(t *testing.T) {
	s, _ := newTestSession(ReloadRelocate)
	defer s.Close()

	// Drain the replace event from setup.
	e := <-s.Events()
	assert.Equal(t, EventQueueReplaced, e.Type)

	require.NoError(t, s.PlayIndex(1))
	s.OnTrackEnded()

	var types []EventType
	for i := 0; i < 3; i++ {
		types = append(types, (<-s.Events()).Type)
	}
	assert.Equal(t, []EventType{EventTrackStarted, EventTrackEnded, EventQueueEnded}, types)
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	s, _ := newTestSession(ReloadRelocate)
	s.Close()
	s.Close()

	assert.Equal(t, StateEmpty, s.GetState())
	assert.NotPanics(t, func() { _ = s.TogglePlayPause() }, "commands after close do not send on the closed channel")
}
