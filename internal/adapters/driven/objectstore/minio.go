// Package objectstore checks source file references against S3-compatible storage.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.FileInspector = (*Inspector)(nil)

// Config holds the object store connection settings.
type Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Region          string
	// Bucket is used for references that carry no bucket of their own.
	Bucket string
}

// Inspector implements driven.FileInspector with StatObject.
type Inspector struct {
	client *minio.Client
	bucket string
}

// NewInspector creates an inspector. It does not create or probe buckets:
// files are written by the upload pipeline, not by this service.
func NewInspector(cfg Config) (*Inspector, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return &Inspector{client: client, bucket: cfg.Bucket}, nil
}

// Inspect stats ref. Accepted forms are "s3://bucket/key" and a bare key in
// the default bucket.
func (i *Inspector) Inspect(ctx context.Context, ref string) (*domain.FileInfo, error) {
	bucket, key, err := i.parseRef(ref)
	if err != nil {
		return nil, err
	}

	info, err := i.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return nil, fmt.Errorf("object %s/%s: %w", bucket, key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to stat object %s/%s: %w", bucket, key, err)
	}

	return &domain.FileInfo{
		ContentType: info.ContentType,
		Size:        info.Size,
		ETag:        info.ETag,
	}, nil
}

var errBadRef = errors.New("file reference must be s3://bucket/key or an object key")

func (i *Inspector) parseRef(ref string) (string, string, error) {
	ref = strings.TrimSpace(ref)
	if rest, ok := strings.CutPrefix(ref, "s3://"); ok {
		bucket, key, found := strings.Cut(rest, "/")
		if !found || bucket == "" || key == "" {
			return "", "", fmt.Errorf("%w: %q", domain.ErrInvalidInput, ref)
		}
		return bucket, key, nil
	}
	if strings.Contains(ref, "://") || ref == "" || i.bucket == "" {
		return "", "", fmt.Errorf("%w: %v: %q", domain.ErrInvalidInput, errBadRef, ref)
	}
	return i.bucket, strings.TrimPrefix(ref, "/"), nil
}
