package domain

import "time"

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCanceled  JobStatus = "canceled"
)

// Done reports whether the job has reached a terminal status.
func (s JobStatus) Done() bool {
	return s == JobCompleted || s == JobFailed || s == JobCanceled
}

type JobProgress struct {
	Total   int `json:"total"`
	Done    int `json:"done"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

type Job struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"` // translate_file | translate_project
	Status    JobStatus   `json:"status"`
	ProjectID int64       `json:"project_id"`
	FileID    *int64      `json:"file_id,omitempty"`
	ActorID   int64       `json:"actor_id"`
	Progress  JobProgress `json:"progress"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type JobItem struct {
	ID        int64     `json:"id"`
	JobID     string    `json:"job_id"`
	SegmentID int64     `json:"segment_id"`
	Status    string    `json:"status"` // done | failed | skipped
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
