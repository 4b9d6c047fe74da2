package connect

import (
	"context"
	"fmt"
	"net/http"

	"connectrpc.com/connect"

	"github.com/osa030/releasebox/internal/api/apiv1"
	"github.com/osa030/releasebox/internal/app/catalog"
)

// CatalogService implements the CatalogService RPC.
type CatalogService struct {
	catalog *catalog.Manager
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(manager *catalog.Manager) *CatalogService {
	return &CatalogService{catalog: manager}
}

// NewCatalogServiceHandler builds an HTTP handler serving every CatalogService
// procedure and returns the path prefix to mount it on.
func NewCatalogServiceHandler(svc *CatalogService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSONCodec()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(apiv1.CatalogServiceGetCatalogProcedure, connect.NewUnaryHandler(
		apiv1.CatalogServiceGetCatalogProcedure, svc.GetCatalog, opts...))
	mux.Handle(apiv1.CatalogServiceGetQueueProcedure, connect.NewUnaryHandler(
		apiv1.CatalogServiceGetQueueProcedure, svc.GetQueue, opts...))
	mux.Handle(apiv1.CatalogServiceGetCountdownProcedure, connect.NewUnaryHandler(
		apiv1.CatalogServiceGetCountdownProcedure, svc.GetCountdown, opts...))
	mux.Handle(apiv1.CatalogServiceReloadProcedure, connect.NewUnaryHandler(
		apiv1.CatalogServiceReloadProcedure, svc.Reload, opts...))

	return "/" + apiv1.CatalogServiceName + "/", mux
}

// GetCatalog returns the published catalog.
func (s *CatalogService) GetCatalog(
	ctx context.Context,
	req *connect.Request[apiv1.GetCatalogRequest],
) (*connect.Response[apiv1.GetCatalogResponse], error) {
	return connect.NewResponse(&apiv1.GetCatalogResponse{
		Catalog: s.catalog.GetCatalog(),
	}), nil
}

// GetQueue returns the flat playback queue.
func (s *CatalogService) GetQueue(
	ctx context.Context,
	req *connect.Request[apiv1.GetQueueRequest],
) (*connect.Response[apiv1.GetQueueResponse], error) {
	return connect.NewResponse(&apiv1.GetQueueResponse{
		Entries: s.catalog.GetQueue(),
	}), nil
}

// GetCountdown returns the countdown to the nearest locked release.
func (s *CatalogService) GetCountdown(
	ctx context.Context,
	req *connect.Request[apiv1.GetCountdownRequest],
) (*connect.Response[apiv1.GetCountdownResponse], error) {
	return connect.NewResponse(&apiv1.GetCountdownResponse{
		Countdown: s.catalog.GetCountdown(),
	}), nil
}

// Reload runs a load cycle and returns the resulting catalog.
func (s *CatalogService) Reload(
	ctx context.Context,
	req *connect.Request[apiv1.ReloadRequest],
) (*connect.Response[apiv1.ReloadResponse], error) {
	report, err := s.catalog.Reload(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, connect.NewError(connect.CodeCanceled, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&apiv1.ReloadResponse{
		Result: apiv1.CommandResult{
			Accepted: true,
			Code:     apiv1.CodeOK,
			Message: fmt.Sprintf("releases=%d queue_length=%d failed_sources=%d invalid=%d",
				report.Releases, report.QueueLength, report.FailedSources, report.InvalidEntries),
		},
		Catalog: s.catalog.GetCatalog(),
	}), nil
}
