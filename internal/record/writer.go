package record

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/docintake/internal/extract"
	"github.com/joseph-ayodele/docintake/internal/storage"
)

// Writer persists extraction records into the data bucket.
type Writer struct {
	store      storage.BlobStore
	dataBucket string
	now        func() time.Time
	logger     *slog.Logger
}

func NewWriter(store storage.BlobStore, dataBucket string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{store: store, dataBucket: dataBucket, now: time.Now, logger: logger}
}

// Write builds the record for doc and stores it at KeyFor(doc.Key), replacing
// any record already there. Persistence errors are returned unchanged in kind.
func (w *Writer) Write(ctx context.Context, doc extract.DocumentRef, fields map[string]string, pages int) (Ref, error) {
	rec := New(doc.Bucket, doc.Key, fields, pages, w.now())
	body, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return Ref{}, fmt.Errorf("marshal record: %w", err)
	}

	ref := Ref{Bucket: w.dataBucket, Key: KeyFor(doc.Key)}
	err = w.store.Put(ctx, storage.PutInput{
		Bucket:      ref.Bucket,
		Key:         ref.Key,
		Body:        body,
		ContentType: "application/json",
		Metadata: map[string]string{
			"source-image":  doc.Key,
			"source-bucket": doc.Bucket,
		},
	})
	if err != nil {
		return Ref{}, fmt.Errorf("write record %s: %w", ref.Key, err)
	}
	w.logger.Info("record written", "record_key", ref.Key, "source_key", doc.Key, "fields", len(rec.Data))
	return ref, nil
}
