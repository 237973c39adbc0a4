package record

import (
	"path"
	"strings"
	"time"

	"github.com/joseph-ayodele/docintake/constants"
)

// Record is the persisted extraction artifact, one per source document.
type Record struct {
	Status       string            `json:"status"`
	SourceFile   string            `json:"source_file"`
	SourceBucket string            `json:"source_bucket"`
	Data         map[string]string `json:"data"`
	Metadata     Metadata          `json:"metadata"`
}

// Metadata describes the processing run that produced a Record.
type Metadata struct {
	ProcessedAt   string `json:"processed_at"`
	PagesAnalyzed int    `json:"pages_analyzed"`
	TotalFields   int    `json:"total_fields"`
}

// Ref identifies a written record.
type Ref struct {
	Bucket string
	Key    string
}

// KeyFor derives the record key for a source document key: directories and
// the last extension are dropped, then RecordSuffix is appended.
// "scans/Invoice 7.v2.pdf" -> "Invoice 7.v2_json.txt".
func KeyFor(sourceKey string) string {
	name := sourceKey
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[:i]
	}
	return name + constants.RecordSuffix
}

// IsRecordKey reports whether a data-store key names an extraction record.
func IsRecordKey(key string) bool {
	return strings.HasSuffix(key, constants.RecordSuffix)
}

// DisplayName is the image filename shown for a record: the last segment of
// source_file, or the record stem plus DefaultImageExt when source_file is empty.
func DisplayName(rec Record, recordKey string) string {
	if rec.SourceFile != "" {
		return path.Base(rec.SourceFile)
	}
	return strings.TrimSuffix(recordKey, constants.RecordSuffix) + constants.DefaultImageExt
}

// New assembles a success record for fields extracted from src.
func New(srcBucket, srcKey string, fields map[string]string, pages int, now time.Time) Record {
	if fields == nil {
		fields = map[string]string{}
	}
	return Record{
		Status:       constants.RecordStatusSuccess,
		SourceFile:   srcKey,
		SourceBucket: srcBucket,
		Data:         fields,
		Metadata: Metadata{
			ProcessedAt:   now.UTC().Format(time.RFC3339Nano),
			PagesAnalyzed: pages,
			TotalFields:   len(fields),
		},
	}
}
