package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/joseph-ayodele/docintake/internal/common"
)

const metaDir = "/.meta"

type sidecar struct {
	ContentType string            `json:"content_type"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// FSStore is a BlobStore over an afero filesystem: one directory per bucket,
// store-level attributes in JSON sidecars under /.meta. Read links are signed
// with a LinkSigner and served by the HTTP server.
type FSStore struct {
	fs     afero.Fs
	signer *LinkSigner
	logger *slog.Logger
}

func NewFSStore(fsys afero.Fs, signer *LinkSigner, logger *slog.Logger) *FSStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSStore{fs: fsys, signer: signer, logger: logger}
}

func objectPath(bucket, key string) (string, error) {
	if bucket == "" || strings.Contains(bucket, "/") || strings.HasPrefix(bucket, ".") {
		return "", common.NewAppError("INVALID_BUCKET", fmt.Sprintf("invalid bucket %q", bucket), common.ErrInvalidInput)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", common.NewAppError("INVALID_KEY", fmt.Sprintf("invalid key %q", key), common.ErrInvalidInput)
		}
	}
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", common.NewAppError("INVALID_KEY", fmt.Sprintf("invalid key %q", key), common.ErrInvalidInput)
	}
	return "/" + bucket + clean, nil
}

func (s *FSStore) Put(_ context.Context, in PutInput) error {
	p, err := objectPath(in.Bucket, in.Key)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", p, err)
	}
	if err := afero.WriteFile(s.fs, p, in.Body, 0o644); err != nil {
		s.logger.Error("fs put failed", "bucket", in.Bucket, "key", in.Key, "error", err)
		return fmt.Errorf("write %s: %w", p, err)
	}

	meta, err := json.Marshal(sidecar{ContentType: in.ContentType, Metadata: in.Metadata})
	if err != nil {
		return fmt.Errorf("marshal sidecar: %w", err)
	}
	mp := metaDir + p + ".json"
	if err := s.fs.MkdirAll(path.Dir(mp), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", mp, err)
	}
	if err := afero.WriteFile(s.fs, mp, meta, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", mp, err)
	}
	s.logger.Debug("fs put ok", "bucket", in.Bucket, "key", in.Key, "bytes", len(in.Body))
	return nil
}

func (s *FSStore) Get(_ context.Context, bucket, key string) (Object, error) {
	p, err := objectPath(bucket, key)
	if err != nil {
		return Object{}, err
	}
	info, err := s.fs.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Object{}, fmt.Errorf("get %s/%s: %w", bucket, key, ErrNotFound)
		}
		return Object{}, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		return Object{}, fmt.Errorf("get %s/%s: %w", bucket, key, ErrNotFound)
	}
	body, err := afero.ReadFile(s.fs, p)
	if err != nil {
		return Object{}, fmt.Errorf("read %s: %w", p, err)
	}

	obj := Object{
		ObjectInfo: ObjectInfo{Key: key, LastModified: info.ModTime().UTC(), Size: info.Size()},
		Body:       body,
	}
	if raw, err := afero.ReadFile(s.fs, metaDir+p+".json"); err == nil {
		var sc sidecar
		if err := json.Unmarshal(raw, &sc); err != nil {
			s.logger.Warn("fs sidecar unreadable", "bucket", bucket, "key", key, "error", err)
		} else {
			obj.ContentType = sc.ContentType
			obj.Metadata = sc.Metadata
		}
	}
	return obj, nil
}

// List walks the bucket directory in lexical order. A missing bucket lists empty.
func (s *FSStore) List(_ context.Context, bucket string) ([]ObjectInfo, error) {
	root := "/" + bucket
	if _, err := s.fs.Stat(root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	var out []ObjectInfo
	err := afero.Walk(s.fs, root, func(p string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		key := strings.TrimPrefix(toSlash(p), root+"/")
		out = append(out, ObjectInfo{Key: key, LastModified: info.ModTime().UTC(), Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return out, nil
}

// PresignGet fails with ErrNotFound for keys that do not exist.
func (s *FSStore) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	p, err := objectPath(bucket, key)
	if err != nil {
		return "", err
	}
	if _, err := s.fs.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("presign %s/%s: %w", bucket, key, ErrNotFound)
		}
		return "", fmt.Errorf("stat %s: %w", p, err)
	}
	if s.signer == nil {
		return "", fmt.Errorf("presign %s/%s: no link signer configured", bucket, key)
	}
	return s.signer.Sign(bucket, key, expiry)
}

// Signer exposes the link signer so the HTTP layer can verify tokens.
func (s *FSStore) Signer() *LinkSigner { return s.signer }

func toSlash(p string) string { return strings.ReplaceAll(p, "\\", "/") }
