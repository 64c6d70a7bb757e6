package server

import (
	"github.com/joseph-ayodele/venue-planner/constants"
	"github.com/joseph-ayodele/venue-planner/internal/entity"
	"github.com/joseph-ayodele/venue-planner/internal/queue"
	"github.com/joseph-ayodele/venue-planner/internal/syncer"
	"github.com/joseph-ayodele/venue-planner/internal/view"
)

// UploadFile is one file in an upload. Data travels base64 encoded.
type UploadFile struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

type UploadRequest struct {
	Kind  string       `json:"kind"`
	Files []UploadFile `json:"files"`
}

type UploadResponse struct {
	JobIDs []string `json:"job_ids"`
}

type ListJobsRequest struct {
	Kind string `json:"kind"`
}

type ListJobsResponse struct {
	Jobs  []queue.Job `json:"jobs"`
	Stats queue.Stats `json:"stats"`
}

type JobRequest struct {
	Kind  string `json:"kind"`
	JobID string `json:"job_id"`
}

type ResetQueueRequest struct {
	Kind string `json:"kind"`
}

type Empty struct{}

type ListRequest struct {
	Query view.Query `json:"query"`
}

type ListVenuesResponse struct {
	Venues []entity.Venue `json:"venues"`
}

type ListVendorsResponse struct {
	Vendors []entity.Vendor `json:"vendors"`
}

// SaveVenueRequest creates a venue when ID is empty and edits it otherwise.
type SaveVenueRequest struct {
	ID     string                        `json:"id,omitempty"`
	Fields entity.VenueFields            `json:"fields"`
	Status constants.ConsiderationStatus `json:"status,omitempty"`
}

type SaveVendorRequest struct {
	ID     string                        `json:"id,omitempty"`
	Fields entity.VendorFields           `json:"fields"`
	Status constants.ConsiderationStatus `json:"status,omitempty"`
}

type SetStatusRequest struct {
	Kind   string                        `json:"kind"`
	ID     string                        `json:"id"`
	Status constants.ConsiderationStatus `json:"status"`
}

type DeleteRequest struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// ExportRequest exports one collection, or both as a two-sheet workbook
// when Kind is empty.
type ExportRequest struct {
	Kind   string `json:"kind,omitempty"`
	Format string `json:"format,omitempty"`
}

type ExportResponse struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
	Rows        int    `json:"rows"`
}

type SummaryRequest struct {
	Guests int `json:"guests"`
}

type SyncStatusResponse struct {
	Status syncer.ConnectionStatus `json:"status"`
}
