package connect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/osa030/releasebox/internal/api/apiv1"
	"github.com/osa030/releasebox/internal/app/catalog"
)

// resultMessages holds the user-facing text for each command result code.
var resultMessages = map[string]string{
	apiv1.CodeOK:            "OK",
	apiv1.CodeQueueEmpty:    "Nothing to play yet",
	apiv1.CodeOutOfRange:    "No such track",
	apiv1.CodeReleaseLocked: "This release is not out yet",
	apiv1.CodeNoTrack:       "No track loaded",
	apiv1.CodeUnknownLength: "Track length not known yet",
	apiv1.CodeFailed:        "Command failed",
}

// PlayerService implements the PlayerService RPC.
type PlayerService struct {
	catalog *catalog.Manager
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(manager *catalog.Manager) *PlayerService {
	return &PlayerService{catalog: manager}
}

// NewPlayerServiceHandler builds an HTTP handler serving every PlayerService
// procedure and returns the path prefix to mount it on.
func NewPlayerServiceHandler(svc *PlayerService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSONCodec()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(apiv1.PlayerServiceGetStatusProcedure, connect.NewUnaryHandler(
		apiv1.PlayerServiceGetStatusProcedure, svc.GetStatus, opts...))
	mux.Handle(apiv1.PlayerServicePlayTrackProcedure, connect.NewUnaryHandler(
		apiv1.PlayerServicePlayTrackProcedure, svc.PlayTrack, opts...))
	mux.Handle(apiv1.PlayerServicePlayReleaseProcedure, connect.NewUnaryHandler(
		apiv1.PlayerServicePlayReleaseProcedure, svc.PlayRelease, opts...))
	mux.Handle(apiv1.PlayerServicePlayIndexProcedure, connect.NewUnaryHandler(
		apiv1.PlayerServicePlayIndexProcedure, svc.PlayIndex, opts...))
	mux.Handle(apiv1.PlayerServiceTogglePlayPauseProcedure, connect.NewUnaryHandler(
		apiv1.PlayerServiceTogglePlayPauseProcedure, svc.TogglePlayPause, opts...))
	mux.Handle(apiv1.PlayerServiceSeekProcedure, connect.NewUnaryHandler(
		apiv1.PlayerServiceSeekProcedure, svc.Seek, opts...))
	mux.Handle(apiv1.PlayerServiceReportMediaProcedure, connect.NewUnaryHandler(
		apiv1.PlayerServiceReportMediaProcedure, svc.ReportMedia, opts...))
	mux.Handle(apiv1.PlayerServiceSubscribeNotificationsProcedure, connect.NewServerStreamHandler(
		apiv1.PlayerServiceSubscribeNotificationsProcedure, svc.SubscribeNotifications, opts...))

	return "/" + apiv1.PlayerServiceName + "/", mux
}

// GetStatus returns the player status.
func (s *PlayerService) GetStatus(
	ctx context.Context,
	req *connect.Request[apiv1.GetStatusRequest],
) (*connect.Response[apiv1.GetStatusResponse], error) {
	return connect.NewResponse(&apiv1.GetStatusResponse{
		Status: s.catalog.GetStatus(),
	}), nil
}

// PlayTrack handles play requests for a catalog track.
func (s *PlayerService) PlayTrack(
	ctx context.Context,
	req *connect.Request[apiv1.PlayTrackRequest],
) (*connect.Response[apiv1.CommandResponse], error) {
	return s.commandResponse(s.catalog.PlayTrack(req.Msg.ReleaseIndex, req.Msg.TrackIndex))
}

// PlayRelease handles play requests for the first track of a release.
func (s *PlayerService) PlayRelease(
	ctx context.Context,
	req *connect.Request[apiv1.PlayReleaseRequest],
) (*connect.Response[apiv1.CommandResponse], error) {
	return s.commandResponse(s.catalog.PlayRelease(req.Msg.ReleaseIndex))
}

// PlayIndex handles play requests for a queue entry.
func (s *PlayerService) PlayIndex(
	ctx context.Context,
	req *connect.Request[apiv1.PlayIndexRequest],
) (*connect.Response[apiv1.CommandResponse], error) {
	return s.commandResponse(s.catalog.PlayIndex(req.Msg.QueueIndex))
}

// TogglePlayPause flips the transport.
func (s *PlayerService) TogglePlayPause(
	ctx context.Context,
	req *connect.Request[apiv1.TogglePlayPauseRequest],
) (*connect.Response[apiv1.CommandResponse], error) {
	return s.commandResponse(s.catalog.TogglePlayPause())
}

// Seek moves within the current track.
func (s *PlayerService) Seek(
	ctx context.Context,
	req *connect.Request[apiv1.SeekRequest],
) (*connect.Response[apiv1.CommandResponse], error) {
	return s.commandResponse(s.catalog.Seek(req.Msg.Ratio))
}

// ReportMedia receives media element callbacks.
func (s *PlayerService) ReportMedia(
	ctx context.Context,
	req *connect.Request[apiv1.ReportMediaRequest],
) (*connect.Response[apiv1.ReportMediaResponse], error) {
	if err := s.catalog.ReportMedia(catalog.MediaReportFromMessage(req.Msg)); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	return connect.NewResponse(&apiv1.ReportMediaResponse{}), nil
}

// SubscribeNotifications handles notification subscription requests.
// The current state is sent first; broadcasts follow it in sequence order.
func (s *PlayerService) SubscribeNotifications(
	ctx context.Context,
	req *connect.Request[apiv1.SubscribeNotificationsRequest],
	stream *connect.ServerStream[apiv1.Notification],
) error {
	sub, err := s.catalog.GetNotificationManager().SubscribeWithState(stream, s.catalog.StateNotification)
	if err != nil {
		return err
	}
	// Close waits for an in-flight broadcast, so the stream is not written after return
	defer sub.Close()

	// Wait for client disconnect, eviction, or manager shutdown
	select {
	case <-ctx.Done():
	case <-sub.Done():
	case <-s.catalog.Done():
	}

	return nil
}

func (s *PlayerService) commandResponse(accepted bool, code string, err error) (*connect.Response[apiv1.CommandResponse], error) {
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	return connect.NewResponse(&apiv1.CommandResponse{
		Result: apiv1.CommandResult{
			Accepted: accepted,
			Code:     code,
			Message:  resultMessages[code],
		},
		Status: s.catalog.GetStatus(),
	}), nil
}
