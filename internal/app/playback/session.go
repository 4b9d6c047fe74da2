package playback

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/releasebox/internal/domain/queue"
)

// Errors
var (
	ErrQueueEmpty      = errors.New("queue is empty")
	ErrIndexOutOfRange = errors.New("queue index out of range")
	ErrNoTrack         = errors.New("no track loaded")
	ErrDurationUnknown = errors.New("track duration unknown")
	ErrInvalidRatio    = errors.New("seek ratio must be within [0, 1]")
	ErrPlaybackFailure = errors.New("playback failure")
	ErrTrackNotQueued  = errors.New("track is not in the queue")
)

// Config holds session configuration.
type Config struct {
	ReloadPolicy    ReloadPolicy // What happens to the current track on queue replacement
	EventBufferSize int          // Event channel buffer (default 32)
}

// Status is a snapshot of the session for the presentation layer.
type Status struct {
	State        State
	CurrentIndex int          // -1 when Empty
	Entry        *queue.Entry // Current entry (nil when Empty)
	Position     time.Duration
	Duration     time.Duration // Zero when unknown
	Ratio        float64       // elapsed/duration, valid only if RatioKnown
	RatioKnown   bool
	QueueLength  int
}

// Session is the playback state machine over the flat queue.
// It exclusively owns the media resource.
type Session struct {
	mu sync.RWMutex

	// Queue and position
	queue   queue.Queue
	current int
	state   State

	// Reported by the media element
	position time.Duration
	duration time.Duration

	media  Media
	config Config

	// Events
	eventCh chan Event
	closed  bool

	// Context
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSession creates a new playback session in the Empty state.
func NewSession(media Media, config Config) *Session {
	if config.ReloadPolicy == "" {
		config.ReloadPolicy = ReloadRelocate
	}
	if config.EventBufferSize <= 0 {
		config.EventBufferSize = 32
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		queue:   make(queue.Queue, 0),
		current: -1,
		state:   StateEmpty,
		media:   media,
		config:  config,
		eventCh: make(chan Event, config.EventBufferSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Events returns the event channel.
func (s *Session) Events() <-chan Event {
	return s.eventCh
}

// Queue returns a copy of the current queue.
func (s *Session) Queue() queue.Queue {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(queue.Queue, len(s.queue))
	copy(result, s.queue)
	return result
}

// GetState returns the current state.
func (s *Session) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// CurrentIndex returns the current queue index, or -1 when Empty.
func (s *Session) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		State:        s.state,
		CurrentIndex: s.current,
		Entry:        s.currentEntryLocked(),
		Position:     s.position,
		Duration:     s.duration,
		QueueLength:  len(s.queue),
	}
	if st.Entry != nil && s.duration > 0 {
		ratio := float64(s.position) / float64(s.duration)
		st.Ratio = math.Min(math.Max(ratio, 0), 1)
		st.RatioKnown = true
	}
	return st
}

// Replace swaps in the queue of a new load cycle. A populated queue never
// starts playback by itself. The current index never points into a stale queue:
// it is either relocated to the same track in q or reset to Empty.
func (s *Session) Replace(q queue.Queue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newIndex := -1
	if old := s.currentEntryLocked(); old != nil && s.config.ReloadPolicy == ReloadRelocate {
		newIndex = q.Locate(*old)
	}

	s.queue = q

	switch {
	case newIndex >= 0:
		if newIndex != s.current {
			zlog.Debug().Msgf("playback: current track relocated: from=%d to=%d", s.current, newIndex)
		}
		s.current = newIndex
	case s.current >= 0:
		zlog.Info().Msgf("playback: current track not in new queue, resetting session")
		if s.state == StatePlaying {
			s.mediaCall("pause", s.media.Pause())
		}
		s.resetLocked()
	}

	s.sendEventLocked(Event{
		Type:         EventQueueReplaced,
		Entry:        s.currentEntryLocked(),
		CurrentIndex: s.current,
		State:        s.state,
	})
}

// PlayIndex loads the entry at queue index i and starts playback.
// Out-of-range indices are a no-op.
func (s *Session) PlayIndex(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playIndexLocked(i)
}

// PlayEntry plays the queued entry for (releaseIndex, trackIndex).
func (s *Session) PlayEntry(releaseIndex, trackIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return ErrQueueEmpty
	}
	i := s.queue.IndexOf(releaseIndex, trackIndex)
	if i < 0 {
		return errors.Wrapf(ErrTrackNotQueued, "release=%d track=%d", releaseIndex, trackIndex)
	}
	return s.playIndexLocked(i)
}

// TogglePlayPause starts the first track when Empty, otherwise flips the transport.
func (s *Session) TogglePlayPause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateEmpty:
		if len(s.queue) == 0 {
			return ErrQueueEmpty
		}
		return s.playIndexLocked(0)
	case StatePlaying:
		s.mediaCall("pause", s.media.Pause())
		s.state = StatePaused
	case StatePaused:
		s.mediaCall("play", s.media.Play())
		s.state = StatePlaying
	}

	s.sendEventLocked(Event{
		Type:         EventStateChanged,
		Entry:        s.currentEntryLocked(),
		CurrentIndex: s.current,
		State:        s.state,
	})
	return nil
}

// OnTrackEnded advances to the next entry. At the end of the queue the session
// stays on the last entry, paused.
func (s *Session) OnTrackEnded() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ended := s.currentEntryLocked()
	if ended == nil {
		return
	}

	s.sendEventLocked(Event{
		Type:         EventTrackEnded,
		Entry:        ended,
		CurrentIndex: s.current,
		State:        s.state,
	})

	if s.current+1 < len(s.queue) {
		_ = s.playIndexLocked(s.current + 1)
		return
	}

	zlog.Debug().Msgf("playback: end of queue reached: index=%d", s.current)
	s.state = StatePaused
	s.sendEventLocked(Event{
		Type:         EventQueueEnded,
		Entry:        ended,
		CurrentIndex: s.current,
		State:        s.state,
	})
}

// SeekRatio moves to r * duration within the current track.
// It is a no-op while the duration is unknown.
func (s *Session) SeekRatio(r float64) error {
	if math.IsNaN(r) || r < 0 || r > 1 {
		return ErrInvalidRatio
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current < 0 {
		return ErrNoTrack
	}
	if s.duration <= 0 {
		return ErrDurationUnknown
	}

	target := time.Duration(r * float64(s.duration))
	s.mediaCall("seek", s.media.Seek(target))
	s.position = target

	s.sendEventLocked(Event{
		Type:         EventSeeked,
		Entry:        s.currentEntryLocked(),
		CurrentIndex: s.current,
		State:        s.state,
	})
	return nil
}

// ReportProgress records the media element's position and duration.
// A non-positive duration leaves the known duration unchanged.
func (s *Session) ReportProgress(position, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current < 0 {
		return
	}
	if duration > 0 {
		s.duration = duration
	}
	if position < 0 {
		position = 0
	}
	s.position = position
}

// ReportPlaying syncs the transport with play/pause callbacks from the media element.
func (s *Session) ReportPlaying(playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current < 0 {
		return
	}
	next := StatePaused
	if playing {
		next = StatePlaying
	}
	if next == s.state {
		return
	}
	s.state = next
	s.sendEventLocked(Event{
		Type:         EventStateChanged,
		Entry:        s.currentEntryLocked(),
		CurrentIndex: s.current,
		State:        s.state,
	})
}

// ReportError records a media failure. The session keeps its transport state.
func (s *Session) ReportError(err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	title := ""
	if e := s.currentEntryLocked(); e != nil {
		title = e.Title
	}
	zlog.Warn().Err(errors.Mark(err, ErrPlaybackFailure)).Msgf("playback: media error: index=%d track=%s", s.current, title)
}

// Close closes the session and releases resources.
func (s *Session) Close() {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.resetLocked()
	close(s.eventCh)
}

// playIndexLocked must be called with lock held.
func (s *Session) playIndexLocked(i int) error {
	if len(s.queue) == 0 {
		return ErrQueueEmpty
	}
	if i < 0 || i >= len(s.queue) {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d, queue length %d", i, len(s.queue))
	}

	entry := s.queue[i]
	s.current = i
	s.state = StatePlaying
	s.position = 0
	s.duration = 0

	// Best-effort autoplay: failures are logged and the Playing intent is kept.
	if err := s.media.Load(entry.AudioRef); err != nil {
		s.mediaCall("load", err)
	} else {
		s.mediaCall("play", s.media.Play())
	}

	zlog.Debug().Msgf("playback: track started: index=%d track=%s release=%s", i, entry.Title, entry.ReleaseTitle)

	s.sendEventLocked(Event{
		Type:         EventTrackStarted,
		Entry:        &entry,
		CurrentIndex: i,
		State:        s.state,
	})
	return nil
}

func (s *Session) currentEntryLocked() *queue.Entry {
	if s.current < 0 || s.current >= len(s.queue) {
		return nil
	}
	e := s.queue[s.current]
	return &e
}

func (s *Session) resetLocked() {
	s.current = -1
	s.state = StateEmpty
	s.position = 0
	s.duration = 0
}

// mediaCall logs a failed media operation.
func (s *Session) mediaCall(op string, err error) {
	if err == nil {
		return
	}
	zlog.Warn().Err(errors.Mark(err, ErrPlaybackFailure)).Msgf("playback: media %s failed", op)
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (s *Session) sendEventLocked(e Event) {
	if s.closed {
		return
	}
	select {
	case s.eventCh <- e:
	case <-s.ctx.Done():
	default:
		// Channel full, drop event
	}
}
