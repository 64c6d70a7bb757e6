// Package ingest reads brochures and price lists from disk and feeds them to
// the upload queues, either once from a directory or continuously from a
// watched inbox.
package ingest

import (
	"github.com/joseph-ayodele/venue-planner/internal/document"
	"github.com/joseph-ayodele/venue-planner/internal/entity"
)

// Result is the per-file ingest outcome.
type Result struct {
	SourcePath string
	File       document.File
	Skipped    bool // duplicate content already queued
	JobID      string
	Err        string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Skipped   uint32
	Failed    uint32
}

// Sink accepts files for extraction. planner.Service implements it.
type Sink interface {
	Upload(kind entity.Kind, files ...document.File) ([]string, error)
	HasContent(kind entity.Kind, hash string) bool
}
