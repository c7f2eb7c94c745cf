package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the slice of the S3 client the store uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ObjectStore uploads function code blobs to a single S3 bucket.
type ObjectStore struct {
	client s3API
	bucket string
}

// NewObjectStore creates an ObjectStore on the given bucket.
func NewObjectStore(client *s3.Client, bucket string) *ObjectStore {
	return newObjectStore(client, bucket)
}

func newObjectStore(client s3API, bucket string) *ObjectStore {
	return &ObjectStore{client: client, bucket: bucket}
}

// Put stores the blob under key and returns the bucket name for the caller to
// record alongside the key.
func (s *ObjectStore) Put(ctx context.Context, key string, body io.Reader) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   body,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.bucket, nil
}
