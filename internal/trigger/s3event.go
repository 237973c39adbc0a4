// Package trigger decodes object-created notifications into documents to analyze.
package trigger

import (
	"net/url"

	"github.com/aws/aws-lambda-go/events"

	"github.com/joseph-ayodele/docintake/internal/extract"
)

// FromS3Event returns one DocumentRef per record, in event order. Keys arrive
// form-encoded ("my+file.png") and are decoded; a key that fails to decode is
// used as sent.
func FromS3Event(ev events.S3Event) []extract.DocumentRef {
	docs := make([]extract.DocumentRef, 0, len(ev.Records))
	for _, r := range ev.Records {
		key := r.S3.Object.Key
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
		if key == "" || r.S3.Bucket.Name == "" {
			continue
		}
		docs = append(docs, extract.DocumentRef{Bucket: r.S3.Bucket.Name, Key: key})
	}
	return docs
}
