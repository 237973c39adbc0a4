package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/joseph-ayodele/docintake/internal/common"
)

// ErrNotFound is returned when a bucket/key pair does not exist.
var ErrNotFound = fmt.Errorf("object %w", common.ErrNotFound)

// ObjectInfo is one entry of a bucket listing.
type ObjectInfo struct {
	Key          string
	LastModified time.Time
	Size         int64
}

// Object is a fetched blob with its store-level attributes.
type Object struct {
	ObjectInfo
	Body        []byte
	ContentType string
	Metadata    map[string]string
}

// PutInput describes one write.
type PutInput struct {
	Bucket      string
	Key         string
	Body        []byte
	ContentType string
	Metadata    map[string]string
}

// BlobStore is the object-store collaborator shared by the image and data buckets.
type BlobStore interface {
	Put(ctx context.Context, in PutInput) error
	Get(ctx context.Context, bucket, key string) (Object, error)
	// List returns every object in bucket, in the store's native order.
	List(ctx context.Context, bucket string) ([]ObjectInfo, error)
	// PresignGet returns a URL granting read access to bucket/key for expiry.
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}
