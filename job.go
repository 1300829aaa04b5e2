package qagen

import (
	"context"
	"time"
)

// JobStatus represents the lifecycle state of a job.
type JobStatus string

// Job statuses. Legal transitions: pending → running → {completed,
// failed, cancelled}, and pending → cancelled for jobs cancelled before
// any work starts.
const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is legal.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobPending:
		return next == JobRunning || next == JobCancelled
	case JobRunning:
		return next.Terminal()
	}
	return false
}

// Job represents one user-initiated scrape-and-generate run over a set
// of URLs.
type Job struct {
	ID     string    `json:"id"`
	URLs   []string  `json:"urls"`
	Status JobStatus `json:"status"`

	// Pages is the number of pages processed successfully.
	Pages int `json:"pages"`

	// Pairs is the number of Q&A pairs generated and saved.
	Pairs int `json:"pairs"`

	// Errors records per-page and per-segment failures in the order they
	// occurred. A job with errors can still complete.
	Errors []JobError `json:"errors,omitempty"`

	// Error holds the systemic failure reason when Status is failed.
	Error string `json:"error,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate returns an error if the job contains invalid fields.
func (j *Job) Validate() error {
	if len(j.URLs) == 0 {
		return Errorf(EINVALID, "job requires at least one URL")
	}
	for _, u := range j.URLs {
		if u == "" {
			return Errorf(EINVALID, "job URL must not be empty")
		}
	}
	return nil
}

// JobError records a single per-page or per-segment failure.
type JobError struct {
	URL string `json:"url"`

	// SegmentIndex is the index of the failing segment, or -1 for
	// page-level failures.
	SegmentIndex int `json:"segmentIndex"`

	Code    string `json:"code"`
	Message string `json:"message"`
}

// JobService represents a service for managing jobs.
type JobService interface {
	// CreateJob creates a new job in pending status.
	CreateJob(ctx context.Context, job *Job) error

	// FindJobByID retrieves a job by ID.
	// Returns ENOTFOUND if the job does not exist.
	FindJobByID(ctx context.Context, id string) (*Job, error)

	// FindJobs retrieves jobs matching the filter, most recent first.
	FindJobs(ctx context.Context, filter JobFilter) ([]*Job, error)

	// UpdateJob updates an existing job. Status changes must follow the
	// job state machine; illegal transitions return ECONFLICT.
	// Returns ENOTFOUND if the job does not exist.
	UpdateJob(ctx context.Context, id string, upd JobUpdate) (*Job, error)

	// DeleteJob permanently removes a job and all associated pairs.
	// Returns ENOTFOUND if the job does not exist.
	DeleteJob(ctx context.Context, id string) error
}

// JobFilter represents a filter for FindJobs.
type JobFilter struct {
	ID     *string    `json:"id"`
	Status *JobStatus `json:"status"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// JobUpdate represents fields that can be updated on a job.
// Errors are appended to the existing list, not replaced.
type JobUpdate struct {
	Status *JobStatus `json:"status"`
	Pages  *int       `json:"pages"`
	Pairs  *int       `json:"pairs"`
	Errors []JobError `json:"errors"`
	Error  *string    `json:"error"`
}
