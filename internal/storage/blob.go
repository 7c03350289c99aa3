// AngelaMos | 2026
// blob.go

package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ltl-studio/backend/internal/config"
	"github.com/ltl-studio/backend/internal/core"
)

// Object describes a stored blob and where clients can fetch it.
type Object struct {
	Key  string
	URL  string
	Size int64
}

type BlobStore interface {
	Put(
		ctx context.Context,
		key string,
		r io.Reader,
		size int64,
		contentType string,
	) (*Object, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
	timeout   time.Duration
}

func newMinioClient(cfg config.StorageConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	return client, nil
}

// NewMinioStore connects and makes sure the bucket exists.
func NewMinioStore(ctx context.Context, cfg config.StorageConfig) (*MinioStore, error) {
	client, err := newMinioClient(cfg)
	if err != nil {
		return nil, err
	}

	store := &MinioStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		timeout:   cfg.Timeout,
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(checkCtx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(checkCtx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return store, nil
}

func (m *MinioStore) Put(
	ctx context.Context,
	key string,
	r io.Reader,
	size int64,
	contentType string,
) (*Object, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	info, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("put object: %w: %w", core.ErrUpstream, err)
	}

	return &Object{
		Key:  key,
		URL:  m.ObjectURL(key),
		Size: info.Size,
	}, nil
}

func (m *MinioStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w: %w", core.ErrUpstream, err)
	}
	return nil
}

func (m *MinioStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := m.client.BucketExists(ctx, m.bucket); err != nil {
		return fmt.Errorf("storage ping failed: %w", err)
	}
	return nil
}

// ObjectURL is the address clients download key from. With no public
// URL configured it falls back to path-style addressing on the endpoint.
func (m *MinioStore) ObjectURL(key string) string {
	base := m.publicURL
	if base == "" {
		base = strings.TrimRight(m.client.EndpointURL().String(), "/") + "/" + m.bucket
	}
	return base + "/" + escapeKey(key)
}

func (m *MinioStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.timeout)
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
