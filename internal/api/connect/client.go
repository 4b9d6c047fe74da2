package connect

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/osa030/releasebox/internal/api/apiv1"
)

// Client is a typed client for the CatalogService and PlayerService RPCs.
type Client struct {
	getCatalog      *connect.Client[apiv1.GetCatalogRequest, apiv1.GetCatalogResponse]
	getQueue        *connect.Client[apiv1.GetQueueRequest, apiv1.GetQueueResponse]
	getCountdown    *connect.Client[apiv1.GetCountdownRequest, apiv1.GetCountdownResponse]
	reload          *connect.Client[apiv1.ReloadRequest, apiv1.ReloadResponse]
	getStatus       *connect.Client[apiv1.GetStatusRequest, apiv1.GetStatusResponse]
	playTrack       *connect.Client[apiv1.PlayTrackRequest, apiv1.CommandResponse]
	playRelease     *connect.Client[apiv1.PlayReleaseRequest, apiv1.CommandResponse]
	playIndex       *connect.Client[apiv1.PlayIndexRequest, apiv1.CommandResponse]
	togglePlayPause *connect.Client[apiv1.TogglePlayPauseRequest, apiv1.CommandResponse]
	seek            *connect.Client[apiv1.SeekRequest, apiv1.CommandResponse]
	reportMedia     *connect.Client[apiv1.ReportMediaRequest, apiv1.ReportMediaResponse]
	subscribe       *connect.Client[apiv1.SubscribeNotificationsRequest, apiv1.Notification]
}

// NewClient creates a client for the server at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSONCodec()}, opts...)

	return &Client{
		getCatalog:      connect.NewClient[apiv1.GetCatalogRequest, apiv1.GetCatalogResponse](httpClient, baseURL+apiv1.CatalogServiceGetCatalogProcedure, opts...),
		getQueue:        connect.NewClient[apiv1.GetQueueRequest, apiv1.GetQueueResponse](httpClient, baseURL+apiv1.CatalogServiceGetQueueProcedure, opts...),
		getCountdown:    connect.NewClient[apiv1.GetCountdownRequest, apiv1.GetCountdownResponse](httpClient, baseURL+apiv1.CatalogServiceGetCountdownProcedure, opts...),
		reload:          connect.NewClient[apiv1.ReloadRequest, apiv1.ReloadResponse](httpClient, baseURL+apiv1.CatalogServiceReloadProcedure, opts...),
		getStatus:       connect.NewClient[apiv1.GetStatusRequest, apiv1.GetStatusResponse](httpClient, baseURL+apiv1.PlayerServiceGetStatusProcedure, opts...),
		playTrack:       connect.NewClient[apiv1.PlayTrackRequest, apiv1.CommandResponse](httpClient, baseURL+apiv1.PlayerServicePlayTrackProcedure, opts...),
		playRelease:     connect.NewClient[apiv1.PlayReleaseRequest, apiv1.CommandResponse](httpClient, baseURL+apiv1.PlayerServicePlayReleaseProcedure, opts...),
		playIndex:       connect.NewClient[apiv1.PlayIndexRequest, apiv1.CommandResponse](httpClient, baseURL+apiv1.PlayerServicePlayIndexProcedure, opts...),
		togglePlayPause: connect.NewClient[apiv1.TogglePlayPauseRequest, apiv1.CommandResponse](httpClient, baseURL+apiv1.PlayerServiceTogglePlayPauseProcedure, opts...),
		seek:            connect.NewClient[apiv1.SeekRequest, apiv1.CommandResponse](httpClient, baseURL+apiv1.PlayerServiceSeekProcedure, opts...),
		reportMedia:     connect.NewClient[apiv1.ReportMediaRequest, apiv1.ReportMediaResponse](httpClient, baseURL+apiv1.PlayerServiceReportMediaProcedure, opts...),
		subscribe:       connect.NewClient[apiv1.SubscribeNotificationsRequest, apiv1.Notification](httpClient, baseURL+apiv1.PlayerServiceSubscribeNotificationsProcedure, opts...),
	}
}

// GetCatalog returns the published catalog.
func (c *Client) GetCatalog(ctx context.Context) (*apiv1.Catalog, error) {
	resp, err := c.getCatalog.CallUnary(ctx, connect.NewRequest(&apiv1.GetCatalogRequest{}))
	if err != nil {
		return nil, err
	}
	return &resp.Msg.Catalog, nil
}

// GetQueue returns the flat playback queue.
func (c *Client) GetQueue(ctx context.Context) ([]apiv1.QueueEntry, error) {
	resp, err := c.getQueue.CallUnary(ctx, connect.NewRequest(&apiv1.GetQueueRequest{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Entries, nil
}

// GetCountdown returns the countdown state.
func (c *Client) GetCountdown(ctx context.Context) (*apiv1.Countdown, error) {
	resp, err := c.getCountdown.CallUnary(ctx, connect.NewRequest(&apiv1.GetCountdownRequest{}))
	if err != nil {
		return nil, err
	}
	return &resp.Msg.Countdown, nil
}

// Reload requests a load cycle.
func (c *Client) Reload(ctx context.Context) (*apiv1.ReloadResponse, error) {
	resp, err := c.reload.CallUnary(ctx, connect.NewRequest(&apiv1.ReloadRequest{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// GetStatus returns the player status.
func (c *Client) GetStatus(ctx context.Context) (*apiv1.PlayerStatus, error) {
	resp, err := c.getStatus.CallUnary(ctx, connect.NewRequest(&apiv1.GetStatusRequest{}))
	if err != nil {
		return nil, err
	}
	return &resp.Msg.Status, nil
}

// PlayTrack requests playback of a catalog track.
func (c *Client) PlayTrack(ctx context.Context, releaseIndex, trackIndex int) (*apiv1.CommandResponse, error) {
	resp, err := c.playTrack.CallUnary(ctx, connect.NewRequest(&apiv1.PlayTrackRequest{
		ReleaseIndex: releaseIndex,
		TrackIndex:   trackIndex,
	}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// PlayRelease requests playback of the first track of a release.
func (c *Client) PlayRelease(ctx context.Context, releaseIndex int) (*apiv1.CommandResponse, error) {
	resp, err := c.playRelease.CallUnary(ctx, connect.NewRequest(&apiv1.PlayReleaseRequest{
		ReleaseIndex: releaseIndex,
	}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// PlayIndex requests playback of a queue entry.
func (c *Client) PlayIndex(ctx context.Context, queueIndex int) (*apiv1.CommandResponse, error) {
	resp, err := c.playIndex.CallUnary(ctx, connect.NewRequest(&apiv1.PlayIndexRequest{
		QueueIndex: queueIndex,
	}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// TogglePlayPause flips the transport.
func (c *Client) TogglePlayPause(ctx context.Context) (*apiv1.CommandResponse, error) {
	resp, err := c.togglePlayPause.CallUnary(ctx, connect.NewRequest(&apiv1.TogglePlayPauseRequest{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// Seek moves to ratio of the current track.
func (c *Client) Seek(ctx context.Context, ratio float64) (*apiv1.CommandResponse, error) {
	resp, err := c.seek.CallUnary(ctx, connect.NewRequest(&apiv1.SeekRequest{Ratio: ratio}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// ReportMedia sends a media element callback.
func (c *Client) ReportMedia(ctx context.Context, report *apiv1.ReportMediaRequest) error {
	_, err := c.reportMedia.CallUnary(ctx, connect.NewRequest(report))
	return err
}

// SubscribeNotifications opens the notification stream.
func (c *Client) SubscribeNotifications(ctx context.Context) (*connect.ServerStreamForClient[apiv1.Notification], error) {
	return c.subscribe.CallServerStream(ctx, connect.NewRequest(&apiv1.SubscribeNotificationsRequest{}))
}
