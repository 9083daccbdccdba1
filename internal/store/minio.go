package store

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore writes public wiki images to a MinIO or other S3-compatible
// bucket.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioStore connects to endpoint (host[:port]) and makes sure bucket
// exists. baseURL is the public prefix objects are served under.
func NewMinioStore(ctx context.Context, endpoint, accessKey, secretKey, bucket, baseURL string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       useSSL,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	return &MinioStore{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put uploads the object as publicly readable and returns its URL.
func (s *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"x-amz-acl": "public-read"},
	})
	if err != nil {
		return "", fmt.Errorf("minio put: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

func (s *MinioStore) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}
