// Package server exposes the HTTP entry points (upload, dashboard query,
// trigger webhook, job log, signed file links) and the gRPC health service.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/joseph-ayodele/docintake/internal/async"
	"github.com/joseph-ayodele/docintake/internal/entity"
	"github.com/joseph-ayodele/docintake/internal/extract"
	"github.com/joseph-ayodele/docintake/internal/ingest"
	"github.com/joseph-ayodele/docintake/internal/metrics"
	"github.com/joseph-ayodele/docintake/internal/pipeline"
	"github.com/joseph-ayodele/docintake/internal/storage"
	"github.com/joseph-ayodele/docintake/internal/workitems"
)

type Uploader interface {
	Upload(ctx context.Context, req ingest.UploadRequest) (ingest.UploadResult, error)
}

type WorkItemLister interface {
	List(ctx context.Context) ([]workitems.WorkItem, error)
}

type Exporter interface {
	WorkItemsXLSX(ctx context.Context) ([]byte, error)
}

type BatchProcessor interface {
	ProcessAll(ctx context.Context, docs []extract.DocumentRef) ([]pipeline.ObjectStatus, error)
}

type JobLister interface {
	ListRecent(ctx context.Context, limit int) ([]entity.ExtractJob, error)
}

// Deps are the collaborators behind the routes. Optional ones may be nil:
// without Queue the webhook processes synchronously, without Jobs /jobs is
// 404, and without Signer /files is not mounted. Ping, when set, gates /healthz.
type Deps struct {
	Uploader  Uploader
	WorkItems WorkItemLister
	Exporter  Exporter
	Processor BatchProcessor
	Queue     async.Queue
	Jobs      JobLister
	Files     storage.BlobStore
	Signer    *storage.LinkSigner
	Ping      func(ctx context.Context) error
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

type handlers struct {
	Deps
	logger *slog.Logger
}

// NewRouter builds the HTTP routes.
func NewRouter(d Deps) *mux.Router {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{Deps: d, logger: logger}

	r := mux.NewRouter()
	r.Use(h.requestContext)

	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.Handle("/metrics", d.Metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/upload", h.upload).Methods(http.MethodPost)
	r.HandleFunc("/upload", preflight(uploadMethods)).Methods(http.MethodOptions)

	r.HandleFunc("/workitems", h.listWorkItems).Methods(http.MethodGet)
	r.HandleFunc("/workitems", preflight(queryMethods)).Methods(http.MethodOptions)
	r.HandleFunc("/workitems/export.xlsx", h.exportWorkItems).Methods(http.MethodGet)

	r.HandleFunc("/events/s3", h.s3Event).Methods(http.MethodPost)
	r.HandleFunc("/jobs", h.listJobs).Methods(http.MethodGet)

	if d.Signer != nil && d.Files != nil {
		r.HandleFunc("/files/{bucket}/{key:.+}", h.serveFile).Methods(http.MethodGet)
	}
	return r
}
