package server

import (
	"context"

	"google.golang.org/grpc"

	"github.com/joseph-ayodele/venue-planner/internal/entity"
	"github.com/joseph-ayodele/venue-planner/internal/view"
)

const ServiceName = "planner.v1.PlannerService"

// PlannerServiceServer is the server API for PlannerService.
type PlannerServiceServer interface {
	Upload(context.Context, *UploadRequest) (*UploadResponse, error)
	ListJobs(context.Context, *ListJobsRequest) (*ListJobsResponse, error)
	RemoveJob(context.Context, *JobRequest) (*Empty, error)
	ResetQueue(context.Context, *ResetQueueRequest) (*Empty, error)
	ListVenues(context.Context, *ListRequest) (*ListVenuesResponse, error)
	ListVendors(context.Context, *ListRequest) (*ListVendorsResponse, error)
	SaveVenue(context.Context, *SaveVenueRequest) (*entity.Venue, error)
	SaveVendor(context.Context, *SaveVendorRequest) (*entity.Vendor, error)
	SetStatus(context.Context, *SetStatusRequest) (*Empty, error)
	Delete(context.Context, *DeleteRequest) (*Empty, error)
	Export(context.Context, *ExportRequest) (*ExportResponse, error)
	Summary(context.Context, *SummaryRequest) (*view.Summary, error)
	SyncStatus(context.Context, *Empty) (*SyncStatusResponse, error)
	Reconnect(context.Context, *Empty) (*SyncStatusResponse, error)
}

var _ PlannerServiceServer = (*PlannerServer)(nil)

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

func unary[Req, Resp any](name string, call func(PlannerServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(PlannerServiceServer), ctx, req.(*Req))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// PlannerServiceDesc is registered by hand; messages are plain structs
// carried by the json codec.
var PlannerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PlannerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Upload", PlannerServiceServer.Upload),
		unary("ListJobs", PlannerServiceServer.ListJobs),
		unary("RemoveJob", PlannerServiceServer.RemoveJob),
		unary("ResetQueue", PlannerServiceServer.ResetQueue),
		unary("ListVenues", PlannerServiceServer.ListVenues),
		unary("ListVendors", PlannerServiceServer.ListVendors),
		unary("SaveVenue", PlannerServiceServer.SaveVenue),
		unary("SaveVendor", PlannerServiceServer.SaveVendor),
		unary("SetStatus", PlannerServiceServer.SetStatus),
		unary("Delete", PlannerServiceServer.Delete),
		unary("Export", PlannerServiceServer.Export),
		unary("Summary", PlannerServiceServer.Summary),
		unary("SyncStatus", PlannerServiceServer.SyncStatus),
		unary("Reconnect", PlannerServiceServer.Reconnect),
	},
	Streams:     []grpc.StreamDesc{},
}

func RegisterPlannerServiceServer(s grpc.ServiceRegistrar, srv PlannerServiceServer) {
	s.RegisterService(&PlannerServiceDesc, srv)
}
