package storage

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenOf(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestLinkSigner_Expiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewLinkSigner([]byte("k"), "http://x")
	s.now = func() time.Time { return now }

	link, err := s.Sign("image-items", "a.jpg", time.Hour)
	require.NoError(t, err)
	tok := tokenOf(t, link)

	require.NoError(t, s.Verify("image-items", "a.jpg", tok))

	s.now = func() time.Time { return now.Add(2 * time.Hour) }
	err = s.Verify("image-items", "a.jpg", tok)
	assert.ErrorIs(t, err, ErrLinkInvalid)
}

func TestLinkSigner_RejectsOtherObjectAndKey(t *testing.T) {
	s := NewLinkSigner([]byte("k"), "http://x")
	link, err := s.Sign("image-items", "a.jpg", time.Minute)
	require.NoError(t, err)
	tok := tokenOf(t, link)

	assert.ErrorIs(t, s.Verify("image-items", "b.jpg", tok), ErrLinkInvalid)
	assert.ErrorIs(t, NewLinkSigner([]byte("other"), "http://x").Verify("image-items", "a.jpg", tok), ErrLinkInvalid)
	assert.ErrorIs(t, s.Verify("image-items", "a.jpg", "garbage"), ErrLinkInvalid)
}
