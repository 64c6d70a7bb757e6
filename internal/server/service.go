package server

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/venue-planner/internal/common"
	"github.com/joseph-ayodele/venue-planner/internal/document"
	"github.com/joseph-ayodele/venue-planner/internal/entity"
	"github.com/joseph-ayodele/venue-planner/internal/export"
	"github.com/joseph-ayodele/venue-planner/internal/planner"
	"github.com/joseph-ayodele/venue-planner/internal/view"
)

// PlannerServer adapts planner.Service to the PlannerService RPCs.
type PlannerServer struct {
	svc    *planner.Service
	logger *slog.Logger
}

func NewPlannerServer(svc *planner.Service, logger *slog.Logger) *PlannerServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlannerServer{svc: svc, logger: logger}
}

func parseKind(raw string) (entity.Kind, error) {
	k, err := entity.ParseKind(raw)
	if err != nil {
		return "", common.InvalidArgumentError(err.Error())
	}
	return k, nil
}

func (s *PlannerServer) Upload(_ context.Context, req *UploadRequest) (*UploadResponse, error) {
	kind, err := parseKind(req.Kind)
	if err != nil {
		return nil, err
	}
	files := make([]document.File, 0, len(req.Files))
	for _, f := range req.Files {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return nil, common.InvalidArgumentError("file name is required")
		}
		files = append(files, document.NewFile(name, f.Data))
	}
	ids, err := s.svc.Upload(kind, files...)
	if err != nil {
		s.logger.Warn("server.upload.failed", "kind", kind, "files", len(files), "error", err)
		return nil, toStatus(err)
	}
	return &UploadResponse{JobIDs: ids}, nil
}

func (s *PlannerServer) ListJobs(_ context.Context, req *ListJobsRequest) (*ListJobsResponse, error) {
	kind, err := parseKind(req.Kind)
	if err != nil {
		return nil, err
	}
	jobs, stats, err := s.svc.Jobs(kind)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListJobsResponse{Jobs: jobs, Stats: stats}, nil
}

func (s *PlannerServer) RemoveJob(_ context.Context, req *JobRequest) (*Empty, error) {
	kind, err := parseKind(req.Kind)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.JobID) == "" {
		return nil, common.InvalidArgumentError("job_id is required")
	}
	if err := s.svc.RemoveJob(kind, req.JobID); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (s *PlannerServer) ResetQueue(_ context.Context, req *ResetQueueRequest) (*Empty, error) {
	kind, err := parseKind(req.Kind)
	if err != nil {
		return nil, err
	}
	if err := s.svc.ResetQueue(kind); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (s *PlannerServer) ListVenues(_ context.Context, req *ListRequest) (*ListVenuesResponse, error) {
	return &ListVenuesResponse{Venues: s.svc.Venues(req.Query)}, nil
}

func (s *PlannerServer) ListVendors(_ context.Context, req *ListRequest) (*ListVendorsResponse, error) {
	return &ListVendorsResponse{Vendors: s.svc.Vendors(req.Query)}, nil
}

func (s *PlannerServer) SaveVenue(ctx context.Context, req *SaveVenueRequest) (*entity.Venue, error) {
	var (
		v   entity.Venue
		err error
	)
	if id := strings.TrimSpace(req.ID); id == "" {
		v, err = s.svc.AddVenue(ctx, req.Fields, req.Status)
	} else {
		v, err = s.svc.EditVenue(ctx, id, req.Fields)
		if err == nil && req.Status != "" {
			if err = s.svc.SetVenueStatus(ctx, id, req.Status); err == nil {
				v.Status = req.Status
			}
		}
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return &v, nil
}

func (s *PlannerServer) SaveVendor(ctx context.Context, req *SaveVendorRequest) (*entity.Vendor, error) {
	var (
		v   entity.Vendor
		err error
	)
	if id := strings.TrimSpace(req.ID); id == "" {
		v, err = s.svc.AddVendor(ctx, req.Fields, req.Status)
	} else {
		v, err = s.svc.EditVendor(ctx, id, req.Fields)
		if err == nil && req.Status != "" {
			if err = s.svc.SetVendorStatus(ctx, id, req.Status); err == nil {
				v.Status = req.Status
			}
		}
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return &v, nil
}

func (s *PlannerServer) SetStatus(ctx context.Context, req *SetStatusRequest) (*Empty, error) {
	kind, err := parseKind(req.Kind)
	if err != nil {
		return nil, err
	}
	if err := s.svc.SetStatus(ctx, kind, req.ID, req.Status); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (s *PlannerServer) Delete(ctx context.Context, req *DeleteRequest) (*Empty, error) {
	kind, err := parseKind(req.Kind)
	if err != nil {
		return nil, err
	}
	if err := s.svc.Delete(ctx, kind, req.ID); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (s *PlannerServer) Export(_ context.Context, req *ExportRequest) (*ExportResponse, error) {
	var (
		res export.Result
		err error
	)
	if strings.TrimSpace(req.Kind) == "" {
		res, err = s.svc.Workbook()
	} else {
		kind, kerr := parseKind(req.Kind)
		if kerr != nil {
			return nil, kerr
		}
		format, ferr := export.ParseFormat(req.Format)
		if ferr != nil {
			return nil, toStatus(ferr)
		}
		res, err = s.svc.Export(kind, format)
	}
	if err != nil {
		s.logger.Error("server.export.failed", "kind", req.Kind, "format", req.Format, "error", err)
		return nil, toStatus(err)
	}
	return &ExportResponse{FileName: res.FileName, ContentType: res.ContentType, Data: res.Data, Rows: res.Rows}, nil
}

func (s *PlannerServer) Summary(_ context.Context, req *SummaryRequest) (*view.Summary, error) {
	if req.Guests < 0 {
		return nil, common.InvalidArgumentError("guests must not be negative")
	}
	sum := s.svc.Summary(req.Guests)
	return &sum, nil
}

func (s *PlannerServer) SyncStatus(context.Context, *Empty) (*SyncStatusResponse, error) {
	return &SyncStatusResponse{Status: s.svc.SyncStatus()}, nil
}

func (s *PlannerServer) Reconnect(ctx context.Context, _ *Empty) (*SyncStatusResponse, error) {
	if err := s.svc.Reconnect(ctx); err != nil {
		s.logger.Warn("server.reconnect.failed", "error", err)
		return nil, toStatus(err)
	}
	return &SyncStatusResponse{Status: s.svc.SyncStatus()}, nil
}
