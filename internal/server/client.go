package server

import (
	"context"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"

	"github.com/joseph-ayodele/venue-planner/internal/entity"
	"github.com/joseph-ayodele/venue-planner/internal/view"
)

// Client calls PlannerService with the json codec.
type Client struct {
	cc *grpc.ClientConn
}

func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
		grpc.WithUnaryInterceptor(deviceInterceptor(deviceID())),
	}, opts...)
	cc, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc}, nil
}

func (c *Client) Close() error { return c.cc.Close() }

// deviceID names this machine in server logs. PLANNER_DEVICE_ID overrides
// the hostname.
func deviceID() string {
	if v := os.Getenv("PLANNER_DEVICE_ID"); v != "" {
		return v
	}
	h, _ := os.Hostname()
	return h
}

func deviceInterceptor(dev string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if dev != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, DeviceIDHeader, dev)
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func invoke[Resp any](ctx context.Context, cc *grpc.ClientConn, method string, req any) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, fullMethod(method), req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Upload(ctx context.Context, req *UploadRequest) (*UploadResponse, error) {
	return invoke[UploadResponse](ctx, c.cc, "Upload", req)
}

func (c *Client) ListJobs(ctx context.Context, req *ListJobsRequest) (*ListJobsResponse, error) {
	return invoke[ListJobsResponse](ctx, c.cc, "ListJobs", req)
}

func (c *Client) RemoveJob(ctx context.Context, req *JobRequest) error {
	_, err := invoke[Empty](ctx, c.cc, "RemoveJob", req)
	return err
}

func (c *Client) ResetQueue(ctx context.Context, req *ResetQueueRequest) error {
	_, err := invoke[Empty](ctx, c.cc, "ResetQueue", req)
	return err
}

func (c *Client) ListVenues(ctx context.Context, req *ListRequest) (*ListVenuesResponse, error) {
	return invoke[ListVenuesResponse](ctx, c.cc, "ListVenues", req)
}

func (c *Client) ListVendors(ctx context.Context, req *ListRequest) (*ListVendorsResponse, error) {
	return invoke[ListVendorsResponse](ctx, c.cc, "ListVendors", req)
}

func (c *Client) SaveVenue(ctx context.Context, req *SaveVenueRequest) (*entity.Venue, error) {
	return invoke[entity.Venue](ctx, c.cc, "SaveVenue", req)
}

func (c *Client) SaveVendor(ctx context.Context, req *SaveVendorRequest) (*entity.Vendor, error) {
	return invoke[entity.Vendor](ctx, c.cc, "SaveVendor", req)
}

func (c *Client) SetStatus(ctx context.Context, req *SetStatusRequest) error {
	_, err := invoke[Empty](ctx, c.cc, "SetStatus", req)
	return err
}

func (c *Client) Delete(ctx context.Context, req *DeleteRequest) error {
	_, err := invoke[Empty](ctx, c.cc, "Delete", req)
	return err
}

func (c *Client) Export(ctx context.Context, req *ExportRequest) (*ExportResponse, error) {
	return invoke[ExportResponse](ctx, c.cc, "Export", req)
}

func (c *Client) Summary(ctx context.Context, req *SummaryRequest) (*view.Summary, error) {
	return invoke[view.Summary](ctx, c.cc, "Summary", req)
}

func (c *Client) SyncStatus(ctx context.Context) (*SyncStatusResponse, error) {
	return invoke[SyncStatusResponse](ctx, c.cc, "SyncStatus", &Empty{})
}

func (c *Client) Reconnect(ctx context.Context) (*SyncStatusResponse, error) {
	return invoke[SyncStatusResponse](ctx, c.cc, "Reconnect", &Empty{})
}

// Health checks the standard health service. The request is a proto message,
// so the json codec encodes it with protojson.
func (c *Client) Health(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := healthpb.NewHealthClient(c.cc).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}
