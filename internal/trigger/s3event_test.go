package trigger

import (
	"encoding/json"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docintake/internal/extract"
)

const notification = `{
  "Records": [
    {"eventName": "ObjectCreated:Put", "s3": {"bucket": {"name": "image-items"}, "object": {"key": "20240101_120000_ab12cd34_my+invoice%281%29.png", "size": 10}}},
    {"eventName": "ObjectCreated:Put", "s3": {"bucket": {"name": "image-items"}, "object": {"key": "scan.pdf"}}},
    {"eventName": "ObjectCreated:Put", "s3": {"bucket": {"name": ""}, "object": {"key": "orphan.png"}}}
  ]
}`

func TestFromS3Event(t *testing.T) {
	var ev events.S3Event
	require.NoError(t, json.Unmarshal([]byte(notification), &ev))

	docs := FromS3Event(ev)
	assert.Equal(t, []extract.DocumentRef{
		{Bucket: "image-items", Key: "20240101_120000_ab12cd34_my invoice(1).png"},
		{Bucket: "image-items", Key: "scan.pdf"},
	}, docs)
}

func TestFromS3Event_BadEscapeKeptVerbatim(t *testing.T) {
	ev := events.S3Event{Records: []events.S3EventRecord{{
		S3: events.S3Entity{Bucket: events.S3Bucket{Name: "b"}, Object: events.S3Object{Key: "100%.png"}},
	}}}
	assert.Equal(t, []extract.DocumentRef{{Bucket: "b", Key: "100%.png"}}, FromS3Event(ev))
	assert.Empty(t, FromS3Event(events.S3Event{}))
}
