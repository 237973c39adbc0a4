package entity

import (
	"time"

	"github.com/google/uuid"
)

// ExtractJob is one analysis run for data transfer between layers.
type ExtractJob struct {
	ID           uuid.UUID  `json:"id"`
	SourceBucket string     `json:"source_bucket"`
	SourceKey    string     `json:"source_key"`
	RecordKey    *string    `json:"record_key,omitempty"`
	Status       string     `json:"status"`
	Pages        int        `json:"pages"`
	Fields       int        `json:"fields"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}
