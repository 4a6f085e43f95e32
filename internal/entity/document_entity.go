package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document is one uploaded file in the docs directory.
type Document struct {
	Id        uuid.UUID
	Name      string
	Extension string
	SizeBytes int64
	CreatedAt time.Time
	UpdatedAt *time.Time
}

type IndexBuildStatus string

const (
	IndexBuildSucceeded   IndexBuildStatus = "SUCCESS"
	IndexBuildNoDocuments IndexBuildStatus = "NO_DOCUMENTS"
	IndexBuildFailed      IndexBuildStatus = "FAILED"
)

// IndexBuild records one rebuild attempt.
type IndexBuild struct {
	Id         uuid.UUID
	BuildId    string
	Embedder   string
	Reason     string
	Status     IndexBuildStatus
	Chunks     int
	Documents  int
	Skipped    []string
	DurationMs int64
	Error      string
	CreatedAt  time.Time
}
