package domain

import "time"

type FileStatus string

const (
	FilePending     FileStatus = "pending"
	FileTranslating FileStatus = "translating"
	FileTranslated  FileStatus = "translated"
	FileReviewing   FileStatus = "reviewing"
	FileCompleted   FileStatus = "completed"
	FileError       FileStatus = "error"
)

// FileProgress is derived from a fresh count of the file's segments.
type FileProgress struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Translated int `json:"translated"`
	Percentage int `json:"percentage"`
}

type File struct {
	ID           int64        `json:"id"`
	ProjectID    int64        `json:"project_id"`
	Name         string       `json:"name"`
	Status       FileStatus   `json:"status"`
	Progress     FileProgress `json:"progress"`
	ErrorMessage string       `json:"error_message,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// StatusCount is the number of segments, and their source words, in one status.
type StatusCount struct {
	Status SegmentStatus
	Count  int
	Words  int
}
