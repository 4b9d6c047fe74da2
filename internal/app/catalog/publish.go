package catalog

import (
	"time"

	"github.com/osa030/releasebox/internal/api/apiv1"
	"github.com/osa030/releasebox/internal/app/countdown"
	"github.com/osa030/releasebox/internal/app/playback"
	"github.com/osa030/releasebox/internal/domain/queue"
	"github.com/osa030/releasebox/internal/domain/release"
)

// GetCatalog returns the published catalog.
func (m *Manager) GetCatalog() apiv1.Catalog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.buildCatalogLocked()
}

// GetQueue returns the flat queue.
func (m *Manager) GetQueue() []apiv1.QueueEntry {
	return buildQueueEntries(m.session.Queue())
}

// GetCountdown returns the countdown state.
func (m *Manager) GetCountdown() apiv1.Countdown {
	target, remaining, active := m.scheduler.Current()
	return buildCountdown(target, remaining, active)
}

// GetStatus returns the player status.
func (m *Manager) GetStatus() apiv1.PlayerStatus {
	return buildPlayerStatus(m.session.Status())
}

// StateNotification returns a notification carrying the full current state.
// It is sent to new subscribers before any broadcast.
func (m *Manager) StateNotification() *apiv1.Notification {
	cat := m.GetCatalog()
	cd := m.GetCountdown()
	st := m.GetStatus()
	return &apiv1.Notification{
		Type:      apiv1.NotificationCatalog,
		Catalog:   &cat,
		Countdown: &cd,
		Player:    &st,
	}
}

func (m *Manager) publishCatalog() {
	m.notification.Broadcast(m.StateNotification())
}

func (m *Manager) publishCountdown(typ string, target countdown.Target, remaining countdown.Remaining, active bool) {
	cd := buildCountdown(target, remaining, active)
	m.notification.Broadcast(&apiv1.Notification{
		Type:      typ,
		Countdown: &cd,
	})
}

func (m *Manager) publishPlayer() {
	st := m.GetStatus()
	m.notification.Broadcast(&apiv1.Notification{
		Type:   apiv1.NotificationPlayer,
		Player: &st,
	})
}

func (m *Manager) publishMediaCommand(cmd playback.Command) {
	m.notification.Broadcast(&apiv1.Notification{
		Type:         apiv1.NotificationMediaCommand,
		MediaCommand: buildMediaCommand(cmd),
	})
}

func (m *Manager) buildCatalogLocked() apiv1.Catalog {
	artist := m.config.Artist
	out := apiv1.Catalog{
		CycleID: m.cycleID,
		Artist: apiv1.Artist{
			Name:      artist.Name,
			AvatarURL: artist.AvatarURL,
			BannerURL: artist.BannerURL,
		},
		Releases:      make([]apiv1.Release, 0, len(m.catalog)),
		ReleaseCount:  len(m.catalog),
		UpcomingCount: m.catalog.UpcomingCount(m.loadedAt),
	}
	if m.loaded {
		out.LoadedAt = release.FormatReleaseDate(m.loadedAt)
	}

	playable := m.catalog.Playable(m.loadedAt)
	for i := range m.catalog {
		rel := &m.catalog[i]
		tracks := make([]apiv1.Track, len(rel.Tracks))
		for j, t := range rel.Tracks {
			tracks[j] = apiv1.Track{Index: j, Title: t.Title, AudioURL: t.AudioRef}
		}
		out.Releases = append(out.Releases, apiv1.Release{
			Index:       i,
			Title:       rel.Title,
			ReleaseDate: release.FormatReleaseDate(rel.ReleaseDate),
			CoverURL:    rel.CoverImageRef,
			Kind:        rel.Kind,
			Playable:    playable[i],
			Tracks:      tracks,
		})
	}
	return out
}

func buildQueueEntry(i int, e queue.Entry) apiv1.QueueEntry {
	return apiv1.QueueEntry{
		Index:        i,
		ReleaseIndex: e.ReleaseIndex,
		TrackIndex:   e.TrackIndex,
		Title:        e.Title,
		ReleaseTitle: e.ReleaseTitle,
		ReleaseDate:  release.FormatReleaseDate(e.ReleaseDate),
		AudioURL:     e.AudioRef,
		CoverURL:     e.CoverImageRef,
	}
}

func buildQueueEntries(q queue.Queue) []apiv1.QueueEntry {
	entries := make([]apiv1.QueueEntry, len(q))
	for i, e := range q {
		entries[i] = buildQueueEntry(i, e)
	}
	return entries
}

func buildCountdown(target countdown.Target, remaining countdown.Remaining, active bool) apiv1.Countdown {
	if !active {
		return apiv1.Countdown{ReleaseIndex: -1, Remaining: countdown.Remaining{}.String()}
	}
	total := remaining.Total
	if total < 0 {
		total = 0
	}
	return apiv1.Countdown{
		Active:       true,
		ReleaseIndex: target.Index,
		Title:        target.Title,
		ReleaseDate:  release.FormatReleaseDate(target.ReleaseDate),
		Days:         remaining.Days,
		Hours:        remaining.Hours,
		Minutes:      remaining.Minutes,
		Seconds:      remaining.Seconds,
		Remaining:    remaining.String(),
		RemainingMs:  total.Milliseconds(),
	}
}

func buildPlayerStatus(st playback.Status) apiv1.PlayerStatus {
	out := apiv1.PlayerStatus{
		State:        st.State.String(),
		CurrentIndex: st.CurrentIndex,
		PositionMs:   st.Position.Milliseconds(),
		DurationMs:   st.Duration.Milliseconds(),
		QueueLength:  st.QueueLength,
	}
	if st.Entry != nil {
		e := buildQueueEntry(st.CurrentIndex, *st.Entry)
		out.Entry = &e
	}
	if st.RatioKnown {
		ratio := st.Ratio
		out.Ratio = &ratio
	}
	return out
}

func buildMediaCommand(cmd playback.Command) *apiv1.MediaCommand {
	return &apiv1.MediaCommand{
		Type:       cmd.Type.String(),
		AudioURL:   cmd.AudioRef,
		PositionMs: cmd.Position.Milliseconds(),
	}
}

// durationFromMs converts wire milliseconds to a duration.
func durationFromMs(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// MediaReportFromMessage converts a wire media report.
func MediaReportFromMessage(req *apiv1.ReportMediaRequest) MediaReport {
	return MediaReport{
		Kind:     MediaReportKind(req.Kind),
		Position: durationFromMs(req.PositionMs),
		Duration: durationFromMs(req.DurationMs),
		Message:  req.Message,
	}
}
