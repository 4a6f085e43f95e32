package dto

import (
	"time"

	"github.com/google/uuid"
)

type SkippedFileDTO struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// UploadResponse keeps the flat "response" key the web client reads.
type UploadResponse struct {
	Response  string           `json:"response"`
	Filename  string           `json:"filename"`
	Documents int              `json:"documents"`
	Chunks    int              `json:"chunks"`
	Skipped   []SkippedFileDTO `json:"skipped,omitempty"`
}

type DocumentResponse struct {
	Id         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Extension  string     `json:"extension"`
	SizeBytes  int64      `json:"size_bytes"`
	UploadedAt time.Time  `json:"uploaded_at"`
	ReplacedAt *time.Time `json:"replaced_at,omitempty"`
	Indexed    bool       `json:"indexed"`
}

type IndexBuildDTO struct {
	BuildId    string    `json:"build_id,omitempty"`
	Reason     string    `json:"reason"`
	Status     string    `json:"status"`
	Chunks     int       `json:"chunks"`
	Documents  int       `json:"documents"`
	Skipped    []string  `json:"skipped,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type IndexStatusResponse struct {
	Ready     bool           `json:"ready"`
	BuildId   string         `json:"build_id,omitempty"`
	Embedder  string         `json:"embedder,omitempty"`
	Dimension int            `json:"dimension,omitempty"`
	Chunks    int            `json:"chunks"`
	Sources   []string       `json:"sources"`
	BuiltAt   *time.Time     `json:"built_at,omitempty"`
	LastBuild *IndexBuildDTO `json:"last_build,omitempty"`
}

type RebuildRequestedResponse struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

// PublishIndexRebuildMessage is the queued rebuild job payload.
type PublishIndexRebuildMessage struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}
