package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/docintake/internal/extract"
)

// ErrClosed is returned by Enqueue once Shutdown has begun.
var ErrClosed = errors.New("queue is shutting down")

// Job is one document waiting for analysis.
type Job struct {
	Doc         extract.DocumentRef
	Source      string // "upload", "watcher", "webhook"
	SubmittedAt time.Time
	RequestID   string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
