package countdown

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"
)

// Config holds scheduler configuration.
type Config struct {
	TickInterval time.Duration    // Cadence of EventTick (default 1s)
	Now          func() time.Time // Clock (default time.Now)
	BufferSize   int              // Event channel buffer (default 16)
}

// Scheduler runs a single countdown against the nearest locked release.
// At most one timer is active; arming a new target cancels the previous one.
type Scheduler struct {
	mu sync.Mutex

	config Config

	// Active countdown
	target      *Target
	generation  uint64 // Bumped on every arm/cancel; stale timers compare against it
	timerCancel func()

	// Targets whose unlock has already been signalled
	unlocked map[string]struct{}

	// Events
	eventCh   chan Event
	wg        sync.WaitGroup
	closeOnce sync.Once
	closed    bool

	// Context
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a new countdown scheduler.
func NewScheduler(config Config) *Scheduler {
	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 16
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		config:   config,
		unlocked: make(map[string]struct{}),
		eventCh:  make(chan Event, config.BufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Events returns the event channel.
func (s *Scheduler) Events() <-chan Event {
	return s.eventCh
}

// Arm starts counting down to target, cancelling any running countdown first.
// It returns false without arming if the target has already been unlocked.
func (s *Scheduler) Arm(target Target) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()

	if s.closed {
		return false
	}
	if _, done := s.unlocked[target.key()]; done {
		zlog.Debug().Msgf("countdown: target already unlocked, not arming: title=%s", target.Title)
		return false
	}

	t := target
	s.target = &t
	gen := s.generation

	ctx, cancel := context.WithCancel(s.ctx)
	s.timerCancel = cancel
	s.wg.Add(1)
	go s.run(ctx, gen, t)

	zlog.Debug().Msgf("countdown: armed: title=%s release_date=%s", t.Title, t.ReleaseDate.Format(time.RFC3339))
	return true
}

// Cancel stops the running countdown, if any. It is safe to call repeatedly.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

func (s *Scheduler) cancelLocked() {
	s.generation++
	if s.timerCancel != nil {
		s.timerCancel()
		s.timerCancel = nil
	}
	s.target = nil
}

// Current returns the active target and its remaining time.
func (s *Scheduler) Current() (Target, Remaining, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.target == nil {
		return Target{}, Remaining{}, false
	}
	return *s.target, Breakdown(s.target.ReleaseDate, s.config.Now()), true
}

// IsCurrent reports whether an event of generation gen belongs to the countdown
// that is still armed. Ticks already buffered when Arm or Cancel ran are not current.
func (s *Scheduler) IsCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target != nil && gen == s.generation
}

// IsUnlocked returns true if the unlock for target has already been signalled.
func (s *Scheduler) IsUnlocked(target Target) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.unlocked[target.key()]
	return ok
}

// Close stops the scheduler and closes the event channel.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.cancelLocked()
		s.closed = true
		s.mu.Unlock()

		s.cancel()
		s.wg.Wait()
		close(s.eventCh)
	})
}

// run ticks at the configured cadence and also wakes at the release instant,
// so the unlock is not delayed by up to one tick.
func (s *Scheduler) run(ctx context.Context, gen uint64, target Target) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	deadline := time.NewTimer(target.ReleaseDate.Sub(s.config.Now()))
	defer deadline.Stop()

	for {
		if s.tick(gen, target) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-deadline.C:
		}
	}
}

// tick emits one time-remaining update, or the unlock signal once the target
// is reached. Returns true when the timer should stop.
func (s *Scheduler) tick(gen uint64, target Target) bool {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return true
	}

	remaining := Breakdown(target.ReleaseDate, s.config.Now())
	if !remaining.Elapsed() {
		// Sent under the lock so Arm and Cancel cannot interleave; sendTick never blocks.
		s.sendTick(Event{Type: EventTick, Target: target, Remaining: remaining, Generation: gen})
		s.mu.Unlock()
		return false
	}

	// Reached: record, disarm, and signal exactly once.
	s.unlocked[target.key()] = struct{}{}
	s.generation++
	if s.timerCancel != nil {
		s.timerCancel()
		s.timerCancel = nil
	}
	s.target = nil
	s.mu.Unlock()

	zlog.Info().Msgf("countdown: release unlocked: title=%s", target.Title)

	// Unlock must not be dropped; block until delivered or the scheduler closes.
	select {
	case s.eventCh <- Event{Type: EventUnlocked, Target: target, Remaining: remaining, Generation: gen}:
	case <-s.ctx.Done():
	}
	return true
}

// sendTick sends a tick without blocking; a slow consumer only misses display updates.
func (s *Scheduler) sendTick(e Event) {
	select {
	case s.eventCh <- e:
	case <-s.ctx.Done():
	default:
	}
}
