package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gorilla/mux"

	"github.com/joseph-ayodele/docintake/internal/async"
	"github.com/joseph-ayodele/docintake/internal/common"
	"github.com/joseph-ayodele/docintake/internal/ingest"
	"github.com/joseph-ayodele/docintake/internal/storage"
	"github.com/joseph-ayodele/docintake/internal/trigger"
)

// base64 of a 5 MiB file plus JSON framing
const maxUploadBody = 8 << 20

const (
	defaultJobsLimit = 50
	maxJobsLimit     = 500
)

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if h.Ping != nil {
		if err := h.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) upload(w http.ResponseWriter, r *http.Request) {
	setCORS(w, uploadMethods)
	logger := common.LoggerFromContext(r.Context(), h.logger)

	var req ingest.UploadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBody)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "File too large", Code: ingest.CodeFileTooLarge, Message: "Request body is too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid request body", Code: "INVALID_JSON", Message: err.Error()})
		return
	}

	res, err := h.Uploader.Upload(r.Context(), req)
	if err != nil {
		var verr *ingest.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: verr.Title, Code: verr.Code, Message: verr.Message, ReceivedType: verr.ReceivedType})
			return
		}
		logger.Error("upload failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Upload failed", Code: common.ErrorCode(err, "UPLOAD_FAILED"), Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) listWorkItems(w http.ResponseWriter, r *http.Request) {
	setCORS(w, queryMethods)
	items, err := h.WorkItems.List(r.Context())
	if err != nil {
		common.LoggerFromContext(r.Context(), h.logger).Error("work item listing failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Failed to retrieve work items", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *handlers) exportWorkItems(w http.ResponseWriter, r *http.Request) {
	setCORS(w, queryMethods)
	body, err := h.Exporter.WorkItemsXLSX(r.Context())
	if err != nil {
		common.LoggerFromContext(r.Context(), h.logger).Error("work item export failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Failed to export work items", Message: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="workitems.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// s3Event accepts an S3 object-created notification. With a queue the objects
// are scheduled and 202 is returned; otherwise they are processed inline.
func (h *handlers) s3Event(w http.ResponseWriter, r *http.Request) {
	logger := common.LoggerFromContext(r.Context(), h.logger)

	var ev events.S3Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid event", Code: "INVALID_JSON", Message: err.Error()})
		return
	}
	docs := trigger.FromS3Event(ev)

	if h.Queue != nil {
		for _, doc := range docs {
			job := async.Job{Doc: doc, Source: "webhook", SubmittedAt: time.Now(), RequestID: common.RequestIDFromContext(r.Context())}
			if err := h.Queue.Enqueue(r.Context(), job); err != nil {
				logger.Error("failed to enqueue object", "key", doc.Key, "error", err)
				writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "Failed to schedule processing", Message: err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusAccepted, map[string]int{"accepted": len(docs)})
		return
	}

	statuses, err := h.Processor.ProcessAll(r.Context(), docs)
	status := http.StatusOK
	if err != nil {
		logger.Error("event processing failed", "error", err)
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]any{"results": statuses})
}

func (h *handlers) listJobs(w http.ResponseWriter, r *http.Request) {
	if h.Jobs == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Job log disabled", Message: "set DB_DRIVER and DB_URL to record processing jobs"})
		return
	}
	limit := defaultJobsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid limit", Code: "INVALID_LIMIT", Message: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxJobsLimit)
	}
	jobs, err := h.Jobs.ListRecent(r.Context(), limit)
	if err != nil {
		common.LoggerFromContext(r.Context(), h.logger).Error("job listing failed", "error", err)
		writeJSON(w, common.HTTPStatus(err), errorBody{Error: "Failed to list jobs", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// serveFile answers the signed links issued by the local backend.
func (h *handlers) serveFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bucket, key := vars["bucket"], vars["key"]

	if err := h.Signer.Verify(bucket, key, r.URL.Query().Get("token")); err != nil {
		writeJSON(w, http.StatusForbidden, errorBody{Error: "Access denied", Message: err.Error()})
		return
	}
	obj, err := h.Files.Get(r.Context(), bucket, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found", Message: key})
			return
		}
		common.LoggerFromContext(r.Context(), h.logger).Error("file read failed", "bucket", bucket, "key", key, "error", err)
		writeJSON(w, common.HTTPStatus(err), errorBody{Error: "Failed to read file", Message: err.Error()})
		return
	}
	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Body)))
	w.Header().Set("Cache-Control", "private, max-age=60")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(obj.Body)
}
