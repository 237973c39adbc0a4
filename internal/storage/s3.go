package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Options tunes the S3 client for S3-compatible endpoints.
type S3Options struct {
	Endpoint     string
	UsePathStyle bool
}

// s3API is the subset of *s3.Client the store needs.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	s3.ListObjectsV2APIClient
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Store is the BlobStore backed by Amazon S3.
type S3Store struct {
	client    s3API
	presigner presignAPI
	logger    *slog.Logger
}

// NewS3Store builds an S3Store from a loaded AWS config.
func NewS3Store(cfg aws.Config, opts S3Options, logger *slog.Logger) *S3Store {
	if logger == nil {
		logger = slog.Default()
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})
	return &S3Store{client: client, presigner: s3.NewPresignClient(client), logger: logger}
}

func newS3StoreWithClients(client s3API, presigner presignAPI, logger *slog.Logger) *S3Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Store{client: client, presigner: presigner, logger: logger}
}

func (s *S3Store) Put(ctx context.Context, in PutInput) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(in.Bucket),
		Key:         aws.String(in.Key),
		Body:        bytes.NewReader(in.Body),
		ContentType: aws.String(in.ContentType),
		Metadata:    in.Metadata,
	})
	if err != nil {
		s.logger.Error("s3 put failed", "bucket", in.Bucket, "key", in.Key, "error", err)
		return fmt.Errorf("put s3://%s/%s: %w", in.Bucket, in.Key, err)
	}
	s.logger.Debug("s3 put ok", "bucket", in.Bucket, "key", in.Key, "bytes", len(in.Body))
	return nil
}

func (s *S3Store) Get(ctx context.Context, bucket, key string) (Object, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return Object{}, fmt.Errorf("get s3://%s/%s: %w", bucket, key, ErrNotFound)
		}
		return Object{}, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	defer func() {
		if cerr := out.Body.Close(); cerr != nil {
			s.logger.Warn("s3 body close failed", "bucket", bucket, "key", key, "error", cerr)
		}
	}()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return Object{}, fmt.Errorf("read s3://%s/%s: %w", bucket, key, err)
	}
	return Object{
		ObjectInfo: ObjectInfo{
			Key:          key,
			LastModified: aws.ToTime(out.LastModified),
			Size:         int64(len(body)),
		},
		Body:        body,
		ContentType: aws.ToString(out.ContentType),
		Metadata:    out.Metadata,
	}, nil
}

// List pages through ListObjectsV2 until the bucket is exhausted.
func (s *S3Store) List(ctx context.Context, bucket string) ([]ObjectInfo, error) {
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{Bucket: aws.String(bucket)})
	var out []ObjectInfo
	pages := 0
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s: %w", bucket, err)
		}
		pages++
		for _, obj := range page.Contents {
			out = append(out, ObjectInfo{
				Key:          aws.ToString(obj.Key),
				LastModified: aws.ToTime(obj.LastModified),
				Size:         aws.ToInt64(obj.Size),
			})
		}
	}
	s.logger.Debug("s3 list ok", "bucket", bucket, "objects", len(out), "pages", pages)
	return out, nil
}

func (s *S3Store) PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presign s3://%s/%s: %w", bucket, key, err)
	}
	return req.URL, nil
}

func isS3NotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
