package queue

import (
	"time"

	"github.com/joseph-ayodele/venue-planner/constants"
	"github.com/joseph-ayodele/venue-planner/internal/document"
)

// Job is a point-in-time view of one uploaded file's progress.
type Job struct {
	ID          string              `json:"id"`
	File        document.File       `json:"file"`
	Status      constants.JobStatus `json:"status"`
	Error       string              `json:"error,omitempty"`
	ResultCount int                 `json:"result_count"`
	EnqueuedAt  time.Time           `json:"enqueued_at"`
	StartedAt   *time.Time          `json:"started_at,omitempty"`
	FinishedAt  *time.Time          `json:"finished_at,omitempty"`
}

// Stats counts jobs by status. Complete is true once the most recent batch
// has been delivered to the completion callback.
type Stats struct {
	Queued     int  `json:"queued"`
	Processing int  `json:"processing"`
	Succeeded  int  `json:"succeeded"`
	Failed     int  `json:"failed"`
	Complete   bool `json:"complete"`
}

type jobState[T any] struct {
	Job
	results   []T
	delivered bool
}

func (j *jobState[T]) snapshot() Job {
	out := j.Job
	out.File.Data = nil
	if j.StartedAt != nil {
		t := *j.StartedAt
		out.StartedAt = &t
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		out.FinishedAt = &t
	}
	return out
}
