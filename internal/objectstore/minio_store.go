package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioOptions configures a MinioObjectStore.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	URLExpiry time.Duration
}

// MinioObjectStore implements the core.ObjectStore interface on an
// S3-compatible bucket. Download URLs are presigned.
type MinioObjectStore struct {
	client    *minio.Client
	bucket    string
	region    string
	urlExpiry time.Duration

	bucketMu    sync.Mutex
	bucketReady bool
}

// NewMinio creates a store for opts.Bucket. No request is sent until the
// first operation.
func NewMinio(opts MinioOptions) (*MinioObjectStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for %s: %w", opts.Endpoint, err)
	}

	return &MinioObjectStore{
		client:    client,
		bucket:    opts.Bucket,
		region:    opts.Region,
		urlExpiry: opts.URLExpiry,
	}, nil
}

// ensureBucket checks for the bucket and creates it when missing. Only
// success is remembered; a failed check is retried on the next call.
func (m *MinioObjectStore) ensureBucket(ctx context.Context) error {
	m.bucketMu.Lock()
	defer m.bucketMu.Unlock()

	if m.bucketReady {
		return nil
	}

	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket '%s': %w", m.bucket, err)
	}

	if !exists {
		err = m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region})
		if err != nil {
			return fmt.Errorf("failed to create bucket '%s': %w", m.bucket, err)
		}
	}

	m.bucketReady = true

	return nil
}

// Download retrieves an object from the bucket.
func (m *MinioObjectStore) Download(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, m.bucket, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}

	return data, nil
}

// Upload saves an object to the bucket, creating the bucket on first use.
func (m *MinioObjectStore) Upload(ctx context.Context, key string, data []byte) error {
	err := m.ensureBucket(ctx)
	if err != nil {
		return err
	}

	_, err = m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentTypeFor(key)})
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, m.bucket, err)
	}

	return nil
}

// URL returns a presigned GET URL for key.
func (m *MinioObjectStore) URL(ctx context.Context, key string) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, m.urlExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign object '%s': %w", key, err)
	}

	return u.String(), nil
}
