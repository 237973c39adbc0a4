// Package ingest accepts new documents into the image store: base64 uploads
// from the dashboard and, for the local backend, files dropped on disk.
package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/common"
	"github.com/joseph-ayodele/docintake/internal/extract"
	"github.com/joseph-ayodele/docintake/internal/metrics"
	"github.com/joseph-ayodele/docintake/internal/storage"
)

// Upload validation codes.
const (
	CodeNoFile          = "NO_FILE"
	CodeInvalidFileType = "INVALID_FILE_TYPE"
	CodeInvalidEncoding = "INVALID_ENCODING"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeEmptyFile       = "EMPTY_FILE"

	codeStoreFailed = "STORE_FAILED"
)

const (
	defaultFileName = "unknown.jpg"
	defaultFileType = "application/octet-stream"
)

// UploadRequest is the JSON body posted by the dashboard.
type UploadRequest struct {
	File     string `json:"file"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
}

// UploadResult describes the stored object.
type UploadResult struct {
	Message      string `json:"message"`
	FileName     string `json:"fileName"`
	OriginalName string `json:"originalName"`
	Size         int    `json:"size"`
	Bucket       string `json:"bucket"`
	Status       string `json:"status"`
}

// ValidationError rejects an upload before anything is stored.
type ValidationError struct {
	Code         string
	Title        string
	Message      string
	ReceivedType string
}

func (e *ValidationError) Error() string { return e.Code + ": " + e.Message }

func (e *ValidationError) Unwrap() error { return common.ErrValidation }

// Notifier is told about every stored upload. The local backend uses it to
// start analysis when no filesystem watcher is running.
type Notifier interface {
	Notify(ctx context.Context, doc extract.DocumentRef) error
}

type Uploader struct {
	store    storage.BlobStore
	bucket   string
	maxBytes int
	notifier Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger
}

type UploaderOption func(*Uploader)

func WithMaxBytes(n int) UploaderOption {
	return func(u *Uploader) {
		if n > 0 {
			u.maxBytes = n
		}
	}
}

func WithNotifier(n Notifier) UploaderOption {
	return func(u *Uploader) { u.notifier = n }
}

func WithMetrics(m *metrics.Metrics) UploaderOption {
	return func(u *Uploader) { u.metrics = m }
}

func NewUploader(store storage.BlobStore, bucket string, logger *slog.Logger, opts ...UploaderOption) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	u := &Uploader{
		store:    store,
		bucket:   bucket,
		maxBytes: constants.MaxUploadBytes,
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   logger,
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// Upload validates req and stores the decoded file under a unique key.
// Validation failures return *ValidationError; store failures are wrapped.
func (u *Uploader) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	logger := common.LoggerFromContext(ctx, u.logger)
	data, verr := u.validate(req)
	if verr != nil {
		logger.Warn("upload rejected", "code", verr.Code, "file_type", req.FileType)
		u.metrics.ObserveUpload(verr.Code)
		return UploadResult{}, verr
	}

	name := req.FileName
	if name == "" {
		name = defaultFileName
	}
	fileType := req.FileType
	if fileType == "" {
		fileType = defaultFileType
	}
	stamp := u.now().UTC().Format("20060102_150405")
	key := UploadKey(stamp, u.newID(), name)

	err := u.store.Put(ctx, storage.PutInput{
		Bucket:      u.bucket,
		Key:         key,
		Body:        data,
		ContentType: fileType,
		Metadata: map[string]string{
			"original-filename": name,
			"upload-timestamp":  stamp,
			"file-size":         strconv.Itoa(len(data)),
			"detected-type":     mimetype.Detect(data).String(),
		},
	})
	if err != nil {
		u.metrics.ObserveUpload(codeStoreFailed)
		return UploadResult{}, common.NewAppError(codeStoreFailed, "store upload "+key, err)
	}
	u.metrics.ObserveUpload("OK")
	logger.Info("upload stored", "key", key, "bytes", len(data), "file_type", fileType)

	if u.notifier != nil {
		if err := u.notifier.Notify(ctx, extract.DocumentRef{Bucket: u.bucket, Key: key}); err != nil {
			logger.Warn("failed to schedule analysis", "key", key, "error", err)
		}
	}

	return UploadResult{
		Message:      "File uploaded successfully",
		FileName:     key,
		OriginalName: name,
		Size:         len(data),
		Bucket:       u.bucket,
		Status:       "Processing will begin automatically",
	}, nil
}

func (u *Uploader) validate(req UploadRequest) ([]byte, *ValidationError) {
	if req.File == "" {
		return nil, &ValidationError{Code: CodeNoFile, Title: "No file provided", Message: "Please select a file to upload"}
	}
	fileType := req.FileType
	if fileType == "" {
		fileType = defaultFileType
	}
	if !constants.IsUploadType(fileType) {
		return nil, &ValidationError{
			Code:         CodeInvalidFileType,
			Title:        "Invalid file type",
			Message:      "Only JPG, PNG, and PDF files are allowed",
			ReceivedType: fileType,
		}
	}
	data, err := decodeBase64(req.File)
	if err != nil {
		return nil, &ValidationError{Code: CodeInvalidEncoding, Title: "Invalid file encoding", Message: "File must be base64 encoded"}
	}
	if len(data) > u.maxBytes {
		return nil, &ValidationError{
			Code:    CodeFileTooLarge,
			Title:   "File too large",
			Message: fmt.Sprintf("File must be less than %dMB (received %d bytes)", u.maxBytes/(1024*1024), len(data)),
		}
	}
	if len(data) == 0 {
		return nil, &ValidationError{Code: CodeEmptyFile, Title: "Empty file", Message: "File is empty"}
	}
	return data, nil
}

// decodeBase64 drops a data URL prefix ("data:image/png;base64,") and decodes
// padded or unpadded standard base64.
func decodeBase64(s string) ([]byte, error) {
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// UploadKey builds "<stamp>_<id[:8]>_<name>" with spaces in name replaced.
func UploadKey(stamp, id, fileName string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	safe := strings.ReplaceAll(path.Base(fileName), " ", "_")
	return stamp + "_" + id + "_" + safe
}
