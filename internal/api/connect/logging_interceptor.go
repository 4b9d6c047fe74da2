package connect

import (
	"context"
	"time"

	"connectrpc.com/connect"
	zlog "github.com/rs/zerolog/log"
)

// NewLoggingInterceptor creates an interceptor that logs unary calls with
// their duration and resulting code.
func NewLoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			procedure := req.Spec().Procedure
			if err != nil {
				zlog.Warn().Err(err).Msgf("rpc: call failed: procedure=%s code=%s elapsed=%v", procedure, connect.CodeOf(err), time.Since(start))
				return resp, err
			}
			zlog.Debug().Msgf("rpc: call: procedure=%s peer=%s elapsed=%v", procedure, req.Peer().Addr, time.Since(start))
			return resp, nil
		}
	}
}
