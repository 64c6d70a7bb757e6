package constants

import "strings"

// JobStatus is the lifecycle state of a single upload job.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "QUEUED"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusSucceeded  JobStatus = "SUCCEEDED"
	JobStatusFailed     JobStatus = "FAILED"
)

// Terminal reports whether no further transition is possible.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// ConsiderationStatus is the user-assigned triage status of a venue or vendor.
type ConsiderationStatus string

const (
	StatusUnseen   ConsiderationStatus = "unseen"
	StatusMaybe    ConsiderationStatus = "maybe"
	StatusPriority ConsiderationStatus = "priority"
	StatusRejected ConsiderationStatus = "rejected"
)

var allStatuses = []ConsiderationStatus{StatusUnseen, StatusMaybe, StatusPriority, StatusRejected}

// ConsiderationStatuses returns every valid status in display order.
func ConsiderationStatuses() []ConsiderationStatus {
	out := make([]ConsiderationStatus, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus normalises s. Empty or unknown input yields StatusUnseen and false.
func ParseStatus(s string) (ConsiderationStatus, bool) {
	normalized := ConsiderationStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range allStatuses {
		if normalized == st {
			return st, true
		}
	}
	return StatusUnseen, false
}

// Audit notes written to last_change_description.
const (
	NoteAddedViaUpload  = "added via upload"
	NoteAddedManually   = "added manually"
	NoteManuallyUpdated = "manually updated"
)
