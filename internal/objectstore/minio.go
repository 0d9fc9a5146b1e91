// Package objectstore keeps attachment file contents in MinIO. The rest of
// the system only ever sees object keys; file bytes never enter the database.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

// Store wraps a MinIO bucket holding issue and response attachments.
type Store struct {
	client *minio.Client
	bucket string
}

// New connects to MinIO and ensures the bucket exists.
func New(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect minio")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, errors.Wrap(err, "check bucket")
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrap(err, "create bucket")
		}
		log.Printf("created attachment bucket %s", bucket)
	}
	return &Store{client: client, bucket: bucket}, nil
}

// Upload stores a file under a generated key and returns the key.
func (s *Store) Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error) {
	key := fmt.Sprintf("%s/%s%s", time.Now().UTC().Format("2006/01"), uuid.New().String(), path.Ext(filename))
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", errors.Wrapf(err, "upload %s", key)
	}
	return key, nil
}

// PresignedURL returns a temporary download link for an object key.
func (s *Store) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
	if err != nil {
		return "", errors.Wrapf(err, "presign %s", key)
	}
	return u.String(), nil
}
