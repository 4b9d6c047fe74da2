// Package catalog provides the manager that owns the release catalog, the
// unlock countdown, and the playback session, and publishes their state.
package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/releasebox/internal/api/apiv1"
	"github.com/osa030/releasebox/internal/app/countdown"
	"github.com/osa030/releasebox/internal/app/notification"
	"github.com/osa030/releasebox/internal/app/playback"
	"github.com/osa030/releasebox/internal/app/source"
	"github.com/osa030/releasebox/internal/domain/queue"
	"github.com/osa030/releasebox/internal/domain/release"
	"github.com/osa030/releasebox/internal/infra/config"
)

var (
	ErrReleaseLocked      = errors.New("release is locked")
	ErrUnknownMediaReport = errors.New("unknown media report kind")
)

// MediaReportKind identifies a media element callback.
type MediaReportKind string

const (
	MediaProgress MediaReportKind = apiv1.MediaProgress
	MediaEnded    MediaReportKind = apiv1.MediaEnded
	MediaPlaying  MediaReportKind = apiv1.MediaPlaying
	MediaPaused   MediaReportKind = apiv1.MediaPaused
	MediaError    MediaReportKind = apiv1.MediaError
)

// MediaReport is a callback from the media element.
type MediaReport struct {
	Kind     MediaReportKind
	Position time.Duration // progress
	Duration time.Duration // progress; zero when unknown
	Message  string        // error
}

// Manager manages the release catalog and the playback session.
type Manager struct {
	mu sync.RWMutex

	// Configuration
	config        *config.Config
	sources       []source.Source
	fetchTimeout  time.Duration
	maxConcurrent int
	now           func() time.Time

	// Components
	scheduler    *countdown.Scheduler
	session      *playback.Session
	media        *playback.RemoteMedia
	notification *notification.Manager

	// Published by the latest load cycle
	catalog  release.Catalog
	cycleID  string
	loadedAt time.Time
	loaded   bool

	// Serializes load cycles
	loadMu sync.Mutex

	// Lifecycle
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// NewManager creates a new catalog manager over the given sources.
func NewManager(cfg *config.Config, sources []source.Source) *Manager {
	return newManager(cfg, sources, time.Now)
}

func newManager(cfg *config.Config, sources []source.Source, now func() time.Time) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	fetchTimeout := cfg.Loader.FetchTimeout()
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}
	maxConcurrent := cfg.Loader.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	media := playback.NewRemoteMedia(cfg.Playback.MediaCommandBuffer)

	return &Manager{
		config:        cfg,
		sources:       sources,
		fetchTimeout:  fetchTimeout,
		maxConcurrent: maxConcurrent,
		now:           now,

		scheduler: countdown.NewScheduler(countdown.Config{
			TickInterval: cfg.Countdown.TickInterval(),
			Now:          now,
		}),
		session: playback.NewSession(media, playback.Config{
			ReloadPolicy:    playback.ReloadPolicy(cfg.Playback.ReloadPolicy),
			EventBufferSize: cfg.Playback.EventBufferSize,
		}),
		media:        media,
		notification: notification.NewManager(),

		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Start runs the first load cycle and starts the event loop.
func (m *Manager) Start(ctx context.Context) error {
	if _, err := m.Load(ctx); err != nil {
		return errors.Wrap(err, "initial load failed")
	}

	go m.eventLoop()
	return nil
}

// Done returns a channel that is closed when the manager is closed.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Close stops the event loop and releases all components.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.cancel()
		m.scheduler.Close()
		m.session.Close()
		m.media.Close()
		m.notification.Close()
		close(m.done)
	})
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notification
}

// Catalog returns the catalog of the latest load cycle.
func (m *Manager) Catalog() release.Catalog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.catalog
}

// Queue returns a copy of the current flat queue.
func (m *Manager) Queue() queue.Queue {
	return m.session.Queue()
}

// Status returns the playback session status.
func (m *Manager) Status() playback.Status {
	return m.session.Status()
}

// Countdown returns the active countdown target and its remaining time.
func (m *Manager) Countdown() (countdown.Target, countdown.Remaining, bool) {
	return m.scheduler.Current()
}

// PlayTrack plays a track of a catalog release.
// Locked releases and unknown indices are rejected as no-ops.
func (m *Manager) PlayTrack(releaseIndex, trackIndex int) (bool, string, error) {
	if err := m.checkTrack(releaseIndex, trackIndex); err != nil {
		return commandResult(err)
	}
	return commandResult(m.session.PlayEntry(releaseIndex, trackIndex))
}

// PlayRelease plays the first track of a catalog release.
func (m *Manager) PlayRelease(releaseIndex int) (bool, string, error) {
	return m.PlayTrack(releaseIndex, 0)
}

// PlayIndex plays the queue entry at index i.
func (m *Manager) PlayIndex(i int) (bool, string, error) {
	return commandResult(m.session.PlayIndex(i))
}

// TogglePlayPause flips the transport, starting the first entry when nothing is loaded.
func (m *Manager) TogglePlayPause() (bool, string, error) {
	return commandResult(m.session.TogglePlayPause())
}

// Seek moves to ratio r of the current track.
func (m *Manager) Seek(r float64) (bool, string, error) {
	return commandResult(m.session.SeekRatio(r))
}

// Reload runs a load cycle on demand.
func (m *Manager) Reload(ctx context.Context) (LoadReport, error) {
	zlog.Info().Msg("catalog: reload requested")
	return m.Load(ctx)
}

// ReportMedia applies a media element callback to the session.
func (m *Manager) ReportMedia(report MediaReport) error {
	switch report.Kind {
	case MediaProgress:
		m.session.ReportProgress(report.Position, report.Duration)
	case MediaEnded:
		m.session.OnTrackEnded()
	case MediaPlaying:
		m.session.ReportPlaying(true)
	case MediaPaused:
		m.session.ReportPlaying(false)
	case MediaError:
		m.session.ReportError(errors.New(report.Message))
	default:
		return errors.Wrapf(ErrUnknownMediaReport, "kind %q", report.Kind)
	}
	return nil
}

// checkTrack validates a catalog address against the published catalog.
func (m *Manager) checkTrack(releaseIndex, trackIndex int) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rel, ok := m.catalog.At(releaseIndex)
	if !ok {
		return errors.Wrapf(playback.ErrIndexOutOfRange, "release index %d, catalog length %d", releaseIndex, len(m.catalog))
	}
	if rel.IsLocked(m.loadedAt) {
		return errors.Wrapf(ErrReleaseLocked, "release %q unlocks at %s", rel.Title, release.FormatReleaseDate(rel.ReleaseDate))
	}
	if trackIndex < 0 || trackIndex >= rel.TrackCount() {
		return errors.Wrapf(playback.ErrIndexOutOfRange, "track index %d, release has %d tracks", trackIndex, rel.TrackCount())
	}
	return nil
}

// commandResult maps a session error to (accepted, code, err).
// No-ops are reported through the code; only malformed requests return an error.
func commandResult(err error) (bool, string, error) {
	switch {
	case err == nil:
		return true, apiv1.CodeOK, nil
	case errors.Is(err, playback.ErrInvalidRatio):
		return false, "", err
	case errors.Is(err, playback.ErrQueueEmpty):
		return false, apiv1.CodeQueueEmpty, nil
	case errors.Is(err, ErrReleaseLocked):
		return false, apiv1.CodeReleaseLocked, nil
	case errors.Is(err, playback.ErrIndexOutOfRange), errors.Is(err, playback.ErrTrackNotQueued):
		return false, apiv1.CodeOutOfRange, nil
	case errors.Is(err, playback.ErrNoTrack):
		return false, apiv1.CodeNoTrack, nil
	case errors.Is(err, playback.ErrDurationUnknown):
		return false, apiv1.CodeUnknownLength, nil
	default:
		zlog.Warn().Err(err).Msg("catalog: command failed")
		return false, apiv1.CodeFailed, nil
	}
}

// eventLoop reacts to countdown, session, and media events.
func (m *Manager) eventLoop() {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("catalog: event loop panicked: %v", r)
			// Restart loop so unlocks keep being handled
			select {
			case <-m.ctx.Done():
			default:
				zlog.Info().Msg("catalog: restarting event loop")
				go m.eventLoop()
			}
		}
	}()

	for {
		select {
		case <-m.ctx.Done():
			return
		case event, ok := <-m.scheduler.Events():
			if !ok {
				return
			}
			m.handleCountdownEvent(event)
		case event, ok := <-m.session.Events():
			if !ok {
				return
			}
			m.handlePlaybackEvent(event)
		case cmd, ok := <-m.media.Commands():
			if !ok {
				return
			}
			m.publishMediaCommand(cmd)
		}
	}
}

// handleCountdownEvent handles countdown events.
func (m *Manager) handleCountdownEvent(event countdown.Event) {
	switch event.Type {
	case countdown.EventTick:
		if !m.scheduler.IsCurrent(event.Generation) {
			zlog.Debug().Msgf("catalog: dropping stale countdown tick: title=%s", event.Target.Title)
			return
		}
		m.publishCountdown(apiv1.NotificationCountdown, event.Target, event.Remaining, true)

	case countdown.EventUnlocked:
		zlog.Info().Msgf("catalog: release unlocked, reloading: title=%s", event.Target.Title)
		m.publishCountdown(apiv1.NotificationUnlocked, event.Target, event.Remaining, true)
		if _, err := m.Load(m.ctx); err != nil {
			zlog.Error().Err(err).Msg("catalog: reload after unlock failed")
		}
	}
}

// handlePlaybackEvent handles playback events.
func (m *Manager) handlePlaybackEvent(event playback.Event) {
	title := ""
	if event.Entry != nil {
		title = event.Entry.Title
	}
	zlog.Debug().Msgf("catalog: playback event: type=%s index=%d state=%s track=%s", event.Type, event.CurrentIndex, event.State, title)

	m.publishPlayer()
}
