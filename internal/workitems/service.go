// Package workitems assembles the dashboard view: each extraction record in the
// data bucket joined with a time-limited link to its source document.
package workitems

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/docintake/internal/metrics"
	"github.com/joseph-ayodele/docintake/internal/record"
	"github.com/joseph-ayodele/docintake/internal/storage"
)

// WorkItem is built per request and never stored.
type WorkItem struct {
	Key          string            `json:"key"`
	LastModified string            `json:"lastModified"`
	URL          string            `json:"url"`
	Metadata     map[string]string `json:"metadata"`
}

type Config struct {
	ImageBucket string
	DataBucket  string
	URLExpiry   time.Duration
}

type Service struct {
	store   storage.BlobStore
	cfg     Config
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(store storage.BlobStore, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = time.Hour
	}
	return &Service{store: store, cfg: cfg, metrics: m, logger: logger}
}

// List returns one WorkItem per readable record, in the store's listing order.
// A record that cannot be read, parsed or linked is logged and left out.
func (s *Service) List(ctx context.Context) ([]WorkItem, error) {
	objects, err := s.store.List(ctx, s.cfg.DataBucket)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	items := make([]WorkItem, 0, len(objects))
	for _, obj := range objects {
		if !record.IsRecordKey(obj.Key) {
			continue
		}
		item, reason, err := s.build(ctx, obj)
		if err != nil {
			s.logger.Warn("skipping record", "record_key", obj.Key, "reason", reason, "error", err)
			s.metrics.ObserveSkippedRecord(reason)
			continue
		}
		items = append(items, item)
	}

	s.metrics.SetWorkItems(len(items))
	s.logger.Debug("work items assembled", "records", len(objects), "items", len(items))
	return items, nil
}

func (s *Service) build(ctx context.Context, info storage.ObjectInfo) (WorkItem, string, error) {
	obj, err := s.store.Get(ctx, s.cfg.DataBucket, info.Key)
	if err != nil {
		return WorkItem{}, "read", err
	}
	rec, err := record.Parse(obj.Body)
	if err != nil {
		return WorkItem{}, "parse", err
	}

	name := record.DisplayName(rec, info.Key)
	url, err := s.link(ctx, name, rec.SourceFile)
	if err != nil {
		return WorkItem{}, "link", err
	}

	modified := info.LastModified
	if modified.IsZero() {
		modified = obj.LastModified
	}
	return WorkItem{
		Key:          name,
		LastModified: modified.UTC().Format(time.RFC3339),
		URL:          url,
		Metadata:     rec.Data,
	}, "", nil
}

// link presigns the display name and, when that fails, the full source key once.
func (s *Service) link(ctx context.Context, name, sourceFile string) (string, error) {
	url, err := s.store.PresignGet(ctx, s.cfg.ImageBucket, name, s.cfg.URLExpiry)
	if err == nil {
		return url, nil
	}
	if sourceFile == "" || sourceFile == name {
		return "", err
	}
	s.logger.Debug("retrying link with source key", "image_key", name, "source_file", sourceFile, "error", err)
	return s.store.PresignGet(ctx, s.cfg.ImageBucket, sourceFile, s.cfg.URLExpiry)
}
