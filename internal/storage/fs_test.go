package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docintake/internal/common"
)

func newMemStore() *FSStore {
	return NewFSStore(afero.NewMemMapFs(), NewLinkSigner([]byte("test-key"), "http://localhost:8080/"), nil)
}

func TestFSStore_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()

	err := s.Put(ctx, PutInput{
		Bucket:      "data-items",
		Key:         "invoice_json.txt",
		Body:        []byte(`{"status":"success"}`),
		ContentType: "application/json",
		Metadata:    map[string]string{"source-image": "invoice.png"},
	})
	require.NoError(t, err)

	obj, err := s.Get(ctx, "data-items", "invoice_json.txt")
	require.NoError(t, err)
	assert.Equal(t, "invoice_json.txt", obj.Key)
	assert.Equal(t, `{"status":"success"}`, string(obj.Body))
	assert.Equal(t, "application/json", obj.ContentType)
	assert.Equal(t, "invoice.png", obj.Metadata["source-image"])
	assert.EqualValues(t, len(obj.Body), obj.Size)
}

func TestFSStore_GetMissing(t *testing.T) {
	_, err := newMemStore().Get(context.Background(), "data-items", "nope.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestFSStore_ListSkipsSidecarsAndNestsKeys(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	for _, k := range []string{"b.png", "a.jpg", "uploads/c.pdf"} {
		require.NoError(t, s.Put(ctx, PutInput{Bucket: "image-items", Key: k, Body: []byte("x")}))
	}
	require.NoError(t, s.Put(ctx, PutInput{Bucket: "data-items", Key: "other.json", Body: []byte("{}")}))

	objs, err := s.List(ctx, "image-items")
	require.NoError(t, err)
	keys := make([]string, 0, len(objs))
	for _, o := range objs {
		keys = append(keys, o.Key)
	}
	assert.ElementsMatch(t, []string{"a.jpg", "b.png", "uploads/c.pdf"}, keys)

	empty, err := s.List(ctx, "never-created")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFSStore_RejectsTraversal(t *testing.T) {
	s := newMemStore()
	err := s.Put(context.Background(), PutInput{Bucket: "image-items", Key: "../escape.jpg", Body: []byte("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	err = s.Put(context.Background(), PutInput{Bucket: ".meta", Key: "x.jpg", Body: []byte("x")})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	require.NoError(t, s.Put(context.Background(), PutInput{Bucket: "image-items", Key: "a..b.jpg", Body: []byte("x")}))
}

func TestFSStore_PresignGet(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	require.NoError(t, s.Put(ctx, PutInput{Bucket: "image-items", Key: "scans/my file.png", Body: []byte("x")}))

	link, err := s.PresignGet(ctx, "image-items", "scans/my file.png", time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "http://localhost:8080/files/image-items/scans/my%20file.png?token="), link)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.NoError(t, s.Signer().Verify("image-items", "scans/my file.png", u.Query().Get("token")))

	_, err = s.PresignGet(ctx, "image-items", "missing.png", time.Hour)
	assert.ErrorIs(t, err, ErrNotFound)
}
