// Package storage handles reference-image uploads backed by MinIO.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/reelforge/reelforge/internal/config"
)

// Uploader stores uploaded files and hands out time-limited URLs for them.
type Uploader interface {
	Upload(ctx context.Context, userID uuid.UUID, filename string, r io.Reader, size int64, contentType string) (string, error)
	PresignedURL(ctx context.Context, objectName string) (string, error)
	Remove(ctx context.Context, objectName string) error
	Ping(ctx context.Context) error
}

// MinioUploader implements Uploader against a MinIO (or S3-compatible) endpoint.
type MinioUploader struct {
	client    *minio.Client
	bucket    string
	urlExpiry time.Duration
}

// NewMinioUploader connects to MinIO and ensures the upload bucket exists.
func NewMinioUploader(ctx context.Context, cfg config.StorageConfig) (*MinioUploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing minio client: %w", err)
	}

	u := &MinioUploader{client: client, bucket: cfg.Bucket, urlExpiry: cfg.URLExpiry}
	if err := u.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *MinioUploader) ensureBucket(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", u.bucket, err)
	}
	if !exists {
		if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("creating bucket %s: %w", u.bucket, err)
		}
	}
	return nil
}

// Upload stores the file under a per-user prefix and returns the object name.
// The object name is opaque and never guessable (uuid-based).
func (u *MinioUploader) Upload(ctx context.Context, userID uuid.UUID, filename string, r io.Reader, size int64, contentType string) (string, error) {
	objectName := fmt.Sprintf("%s/%s-%s", userID, uuid.New(), filename)
	_, err := u.client.PutObject(ctx, u.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", objectName, err)
	}
	return objectName, nil
}

// PresignedURL returns a time-limited GET URL for the object.
func (u *MinioUploader) PresignedURL(ctx context.Context, objectName string) (string, error) {
	url, err := u.client.PresignedGetObject(ctx, u.bucket, objectName, u.urlExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("presigning %s: %w", objectName, err)
	}
	return url.String(), nil
}

// Remove deletes the object. Used when a chat is deleted before its
// reference image was ever attached to a production.
func (u *MinioUploader) Remove(ctx context.Context, objectName string) error {
	return u.client.RemoveObject(ctx, u.bucket, objectName, minio.RemoveObjectOptions{})
}

// Ping verifies the MinIO endpoint is reachable.
func (u *MinioUploader) Ping(ctx context.Context) error {
	_, err := u.client.BucketExists(ctx, u.bucket)
	return err
}

var _ Uploader = (*MinioUploader)(nil)
