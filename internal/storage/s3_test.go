package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	pages   [][]string
	objects map[string][]byte
	puts    []*s3.PutObjectInput
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	mod := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &s3.GetObjectOutput{
		Body:         io.NopCloser(bytes.NewReader(body)),
		ContentType:  aws.String("application/json"),
		LastModified: &mod,
	}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	page := 0
	if in.ContinuationToken != nil {
		fmt.Sscanf(*in.ContinuationToken, "%d", &page)
	}
	out := &s3.ListObjectsV2Output{}
	for _, k := range f.pages[page] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k), Size: aws.Int64(1)})
	}
	if page+1 < len(f.pages) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(fmt.Sprintf("%d", page+1))
	}
	return out, nil
}

type fakePresigner struct{ err error }

func (f fakePresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &v4.PresignedHTTPRequest{URL: "https://" + aws.ToString(in.Bucket) + ".s3/" + aws.ToString(in.Key) + "?X-Amz-Signature=abc"}, nil
}

func TestS3Store_ListFollowsContinuationTokens(t *testing.T) {
	fake := &fakeS3{pages: [][]string{{"a_json.txt", "b_json.txt"}, {"c_json.txt"}, {"d.txt"}}}
	s := newS3StoreWithClients(fake, fakePresigner{}, nil)

	objs, err := s.List(context.Background(), "data-items")
	require.NoError(t, err)
	require.Len(t, objs, 4)
	assert.Equal(t, "a_json.txt", objs[0].Key)
	assert.Equal(t, "d.txt", objs[3].Key)
}

func TestS3Store_GetMapsNoSuchKey(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{"x_json.txt": []byte("{}")}}
	s := newS3StoreWithClients(fake, fakePresigner{}, nil)

	obj, err := s.Get(context.Background(), "data-items", "x_json.txt")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(obj.Body))
	assert.Equal(t, 2024, obj.LastModified.Year())

	_, err = s.Get(context.Background(), "data-items", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3Store_PutAndPresign(t *testing.T) {
	fake := &fakeS3{}
	s := newS3StoreWithClients(fake, fakePresigner{}, nil)

	require.NoError(t, s.Put(context.Background(), PutInput{
		Bucket: "image-items", Key: "a.png", Body: []byte("png"), ContentType: "image/png",
		Metadata: map[string]string{"file-size": "3"},
	}))
	require.Len(t, fake.puts, 1)
	assert.Equal(t, "image/png", aws.ToString(fake.puts[0].ContentType))
	assert.Equal(t, "3", fake.puts[0].Metadata["file-size"])

	link, err := s.PresignGet(context.Background(), "image-items", "a.png", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, link, "image-items.s3/a.png")

	s = newS3StoreWithClients(fake, fakePresigner{err: errors.New("boom")}, nil)
	_, err = s.PresignGet(context.Background(), "image-items", "a.png", time.Hour)
	assert.Error(t, err)
}
