// Package apiv1 defines the request, response, and notification messages of
// the releasebox v1 API. Messages are encoded as JSON on the wire.
package apiv1

// Service and procedure names.
const (
	CatalogServiceName = "releasebox.v1.CatalogService"
	PlayerServiceName  = "releasebox.v1.PlayerService"

	CatalogServiceGetCatalogProcedure   = "/releasebox.v1.CatalogService/GetCatalog"
	CatalogServiceGetQueueProcedure     = "/releasebox.v1.CatalogService/GetQueue"
	CatalogServiceGetCountdownProcedure = "/releasebox.v1.CatalogService/GetCountdown"
	CatalogServiceReloadProcedure       = "/releasebox.v1.CatalogService/Reload"

	PlayerServiceGetStatusProcedure              = "/releasebox.v1.PlayerService/GetStatus"
	PlayerServicePlayTrackProcedure              = "/releasebox.v1.PlayerService/PlayTrack"
	PlayerServicePlayReleaseProcedure            = "/releasebox.v1.PlayerService/PlayRelease"
	PlayerServicePlayIndexProcedure              = "/releasebox.v1.PlayerService/PlayIndex"
	PlayerServiceTogglePlayPauseProcedure        = "/releasebox.v1.PlayerService/TogglePlayPause"
	PlayerServiceSeekProcedure                   = "/releasebox.v1.PlayerService/Seek"
	PlayerServiceReportMediaProcedure            = "/releasebox.v1.PlayerService/ReportMedia"
	PlayerServiceSubscribeNotificationsProcedure = "/releasebox.v1.PlayerService/SubscribeNotifications"
)

// Result codes of command responses.
const (
	CodeOK            = "ok"
	CodeQueueEmpty    = "queue_empty"
	CodeOutOfRange    = "out_of_range"
	CodeReleaseLocked = "release_locked"
	CodeNoTrack       = "no_track"
	CodeUnknownLength = "duration_unknown"
	CodeFailed        = "failed"
)

// Artist is the artist profile shown above the catalog.
type Artist struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	BannerURL string `json:"bannerUrl,omitempty"`
}

// Track is a track of a catalog release.
type Track struct {
	Index    int    `json:"index"`
	Title    string `json:"title"`
	AudioURL string `json:"audioUrl"`
}

// Release is a catalog entry.
type Release struct {
	Index       int     `json:"index"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"releaseDate"`
	CoverURL    string  `json:"coverUrl"`
	Kind        string  `json:"kind"`
	Playable    bool    `json:"playable"`
	Tracks      []Track `json:"tracks"`
}

// Catalog is the catalog published by one load cycle.
type Catalog struct {
	CycleID       string    `json:"cycleId"`
	LoadedAt      string    `json:"loadedAt"`
	Artist        Artist    `json:"artist"`
	Releases      []Release `json:"releases"`
	ReleaseCount  int       `json:"releaseCount"`
	UpcomingCount int       `json:"upcomingCount"`
}

// QueueEntry is an entry of the flat playback queue.
type QueueEntry struct {
	Index        int    `json:"index"`
	ReleaseIndex int    `json:"releaseIndex"`
	TrackIndex   int    `json:"trackIndex"`
	Title        string `json:"title"`
	ReleaseTitle string `json:"releaseTitle"`
	ReleaseDate  string `json:"releaseDate"`
	AudioURL     string `json:"audioUrl"`
	CoverURL     string `json:"coverUrl"`
}

// Countdown is the time remaining until the nearest locked release.
type Countdown struct {
	Active       bool   `json:"active"`
	ReleaseIndex int    `json:"releaseIndex"`
	Title        string `json:"title,omitempty"`
	ReleaseDate  string `json:"releaseDate,omitempty"`
	Days         int    `json:"days"`
	Hours        int    `json:"hours"`
	Minutes      int    `json:"minutes"`
	Seconds      int    `json:"seconds"`
	Remaining    string `json:"remaining"`
	RemainingMs  int64  `json:"remainingMs"`
}

// PlayerStatus is the playback session state.
type PlayerStatus struct {
	State        string      `json:"state"`
	CurrentIndex int         `json:"currentIndex"`
	Entry        *QueueEntry `json:"entry,omitempty"`
	PositionMs   int64       `json:"positionMs"`
	DurationMs   int64       `json:"durationMs"`
	Ratio        *float64    `json:"ratio,omitempty"`
	QueueLength  int         `json:"queueLength"`
}

// MediaCommand instructs the subscribed media element.
type MediaCommand struct {
	Type       string `json:"type"`
	AudioURL   string `json:"audioUrl,omitempty"`
	PositionMs int64  `json:"positionMs,omitempty"`
}

// CommandResult is returned by player commands. Rejected commands are no-ops.
type CommandResult struct {
	Accepted bool   `json:"accepted"`
	Code     string `json:"code"`
	Message  string `json:"message,omitempty"`
}

// GetCatalogRequest is the request of GetCatalog.
type GetCatalogRequest struct{}

// GetCatalogResponse is the response of GetCatalog.
type GetCatalogResponse struct {
	Catalog Catalog `json:"catalog"`
}

// GetQueueRequest is the request of GetQueue.
type GetQueueRequest struct{}

// GetQueueResponse is the response of GetQueue.
type GetQueueResponse struct {
	Entries []QueueEntry `json:"entries"`
}

// GetCountdownRequest is the request of GetCountdown.
type GetCountdownRequest struct{}

// GetCountdownResponse is the response of GetCountdown.
type GetCountdownResponse struct {
	Countdown Countdown `json:"countdown"`
}

// ReloadRequest is the request of Reload.
type ReloadRequest struct{}

// ReloadResponse is the response of Reload.
type ReloadResponse struct {
	Result  CommandResult `json:"result"`
	Catalog Catalog       `json:"catalog"`
}

// GetStatusRequest is the request of GetStatus.
type GetStatusRequest struct{}

// GetStatusResponse is the response of GetStatus.
type GetStatusResponse struct {
	Status PlayerStatus `json:"status"`
}

// PlayTrackRequest requests playback of a catalog track.
type PlayTrackRequest struct {
	ReleaseIndex int `json:"releaseIndex"`
	TrackIndex   int `json:"trackIndex"`
}

// PlayReleaseRequest requests playback of the first track of a release.
type PlayReleaseRequest struct {
	ReleaseIndex int `json:"releaseIndex"`
}

// PlayIndexRequest requests playback of a queue entry.
type PlayIndexRequest struct {
	QueueIndex int `json:"queueIndex"`
}

// TogglePlayPauseRequest is the request of TogglePlayPause.
type TogglePlayPauseRequest struct{}

// SeekRequest requests a seek to a ratio of the current track.
type SeekRequest struct {
	Ratio float64 `json:"ratio"`
}

// CommandResponse is the response of player commands.
type CommandResponse struct {
	Result CommandResult `json:"result"`
	Status PlayerStatus  `json:"status"`
}

// Media report kinds.
const (
	MediaProgress = "progress"
	MediaEnded    = "ended"
	MediaPlaying  = "playing"
	MediaPaused   = "paused"
	MediaError    = "error"
)

// ReportMediaRequest carries a media element callback.
type ReportMediaRequest struct {
	Kind       string `json:"kind"`
	PositionMs int64  `json:"positionMs,omitempty"`
	DurationMs int64  `json:"durationMs,omitempty"`
	Message    string `json:"message,omitempty"`
}

// ReportMediaResponse is the response of ReportMedia.
type ReportMediaResponse struct{}

// SubscribeNotificationsRequest is the request of SubscribeNotifications.
type SubscribeNotificationsRequest struct{}

// Notification types.
const (
	NotificationCatalog      = "catalog"
	NotificationCountdown    = "countdown"
	NotificationUnlocked     = "unlocked"
	NotificationPlayer       = "player"
	NotificationMediaCommand = "media_command"
)

// Notification is a server-pushed state update.
type Notification struct {
	SequenceNo   uint64        `json:"sequenceNo"`
	Type         string        `json:"type"`
	Catalog      *Catalog      `json:"catalog,omitempty"`
	Countdown    *Countdown    `json:"countdown,omitempty"`
	Player       *PlayerStatus `json:"player,omitempty"`
	MediaCommand *MediaCommand `json:"mediaCommand,omitempty"`
}
