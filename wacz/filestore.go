package wacz

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// LocalFileStore persists packages under a root directory on the local
// filesystem.
type LocalFileStore struct {
	Root string
}

// NewLocalFileStore returns a store rooted at root.
func NewLocalFileStore(root string) *LocalFileStore {
	return &LocalFileStore{Root: root}
}

// Persist writes data to Root/path, creating parent directories as needed.
func (s *LocalFileStore) Persist(ctx context.Context, path string, data []byte) error {
	full := filepath.Join(s.Root, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("wacz: mkdir for %s: %w", full, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("wacz: write %s: %w", full, err)
	}
	return nil
}

var _ FileStore = (*LocalFileStore)(nil)

// s3PutObjectAPI is the subset of *s3.Client S3FileStore needs.
type s3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3FileStore persists packages to an S3 (or S3-compatible) bucket.
type S3FileStore struct {
	Client s3PutObjectAPI
	Bucket string
	Prefix string
}

// NewS3FileStore returns a store that writes to bucket under prefix.
func NewS3FileStore(client *s3.Client, bucket, prefix string) *S3FileStore {
	return &S3FileStore{Client: client, Bucket: bucket, Prefix: prefix}
}

// Persist uploads data as Prefix+path via PutObject.
func (s *S3FileStore) Persist(ctx context.Context, objectPath string, data []byte) error {
	key := s.Prefix + objectPath
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("wacz: put s3://%s/%s: %w", s.Bucket, key, err)
	}
	return nil
}

var _ FileStore = (*S3FileStore)(nil)
