package storage

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrLinkInvalid is returned for expired, tampered, or mismatched link tokens.
var ErrLinkInvalid = errors.New("invalid or expired link")

const linkIssuer = "docintake"

// LinkSigner issues and checks time-limited read links for stores that cannot
// presign natively. Links point at {baseURL}/files/{bucket}/{key}?token=...
type LinkSigner struct {
	key     []byte
	baseURL string
	now     func() time.Time
}

func NewLinkSigner(key []byte, baseURL string) *LinkSigner {
	return &LinkSigner{key: key, baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}
}

// Sign returns a link to bucket/key valid for expiry.
func (s *LinkSigner) Sign(bucket, key string, expiry time.Duration) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    linkIssuer,
		Subject:   bucket + "/" + key,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign link: %w", err)
	}
	return fmt.Sprintf("%s/files/%s/%s?token=%s", s.baseURL, url.PathEscape(bucket), escapeKey(key), url.QueryEscape(tok)), nil
}

// Verify checks that token grants access to bucket/key right now.
func (s *LinkSigner) Verify(bucket, key, token string) error {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(linkIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLinkInvalid, err)
	}
	if claims.Subject != bucket+"/"+key {
		return fmt.Errorf("%w: subject mismatch", ErrLinkInvalid)
	}
	return nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
