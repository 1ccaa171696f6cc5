package observability

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"listing-intake-bot/internal/observability/metrics"
)

// UnaryServerInterceptor counts and logs health checks and reflection calls.
func UnaryServerInterceptor(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		observeCall(m, info.FullMethod, "unary", start, err)
		return resp, err
	}
}

// StreamServerInterceptor counts and logs streams, such as health Watch.
// A stream ended by the client reports Canceled and is not treated as a failure.
func StreamServerInterceptor(m *metrics.Metrics) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		observeCall(m, info.FullMethod, "stream", start, err)
		return err
	}
}

func observeCall(m *metrics.Metrics, method, kind string, start time.Time, err error) {
	code := status.Code(err)
	m.RecordGRPCRequest(method, code.String())

	var event *zerolog.Event
	switch code {
	case codes.OK, codes.Canceled:
		event = log.Debug()
	default:
		event = log.Warn().Err(err)
	}
	event.
		Str("method", method).
		Str("kind", kind).
		Str("code", code.String()).
		Dur("duration", time.Since(start)).
		Msg("gRPC call finished")
}
