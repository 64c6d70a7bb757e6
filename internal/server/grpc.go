package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/venue-planner/internal/common"
)

// Metadata keys read from incoming calls.
const (
	RequestIDHeader = "x-request-id"
	DeviceIDHeader  = "x-device-id"
)

// GRPC bundles the server with the health service so both stop together.
type GRPC struct {
	Server *grpc.Server
	Health *health.Server
}

// NewGRPC registers PlannerService, the health service and reflection.
func NewGRPC(svc PlannerServiceServer, logger *slog.Logger, opts ...grpc.ServerOption) *GRPC {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(recoverInterceptor(logger), logInterceptor(logger)),
	}, opts...)
	gs := grpc.NewServer(opts...)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	RegisterPlannerServiceServer(gs, svc)
	reflection.Register(gs)
	return &GRPC{Server: gs, Health: hs}
}

// Stop marks the service as not serving and drains in-flight calls until ctx
// is done.
func (g *GRPC) Stop(ctx context.Context) {
	g.Health.Shutdown()
	done := make(chan struct{})
	go func() {
		g.Server.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		g.Server.Stop()
		<-done
	}
}

func logInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		ctx = withCallIDs(ctx)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, common.RequestIDFromContext(ctx)))
		resp, err := handler(ctx, req)
		code := status.Code(err)
		attrs := []any{
			"method", info.FullMethod,
			"code", code.String(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", common.RequestIDFromContext(ctx),
		}
		if dev := common.DeviceIDFromContext(ctx); dev != "" {
			attrs = append(attrs, "device_id", dev)
		}
		switch code {
		case codes.OK:
			logger.Debug("grpc.call", attrs...)
		case codes.Internal, codes.Unknown:
			logger.Error("grpc.call", append(attrs, "error", err)...)
		default:
			logger.Info("grpc.call", append(attrs, "error", err)...)
		}
		return resp, err
	}
}

// withCallIDs copies the caller's request and device IDs into ctx, minting a
// request ID when none was sent.
func withCallIDs(ctx context.Context) context.Context {
	md, _ := metadata.FromIncomingContext(ctx)
	reqID := first(md, RequestIDHeader)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	ctx = common.WithRequestID(ctx, reqID)
	if dev := first(md, DeviceIDHeader); dev != "" {
		ctx = common.WithDeviceID(ctx, dev)
	}
	return ctx
}

func first(md metadata.MD, key string) string {
	if v := md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

func recoverInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("grpc.panic", "method", info.FullMethod, "panic", r)
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}
