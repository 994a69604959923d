package zipstore

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the subset of *s3.Client this package calls, so tests can stub
// it without a real S3 endpoint.
type s3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3RangeFetcher fetches byte ranges from an S3 (or S3-compatible) object
// via the AWS SDK v2, for remote WACZ packages that live in object
// storage rather than on local disk.
type S3RangeFetcher struct {
	Client s3API
	Bucket string
	Key    string
}

// NewS3RangeFetcher returns a fetcher against bucket/key using client.
func NewS3RangeFetcher(client *s3.Client, bucket, key string) *S3RangeFetcher {
	return &S3RangeFetcher{Client: client, Bucket: bucket, Key: key}
}

// Size issues a HeadObject call and returns the object's content length.
func (f *S3RangeFetcher) Size(ctx context.Context) (int64, error) {
	out, err := f.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &f.Bucket,
		Key:    &f.Key,
	})
	if err != nil {
		return 0, fmt.Errorf("zipstore: head s3://%s/%s: %w", f.Bucket, f.Key, err)
	}
	if out.ContentLength == nil {
		return 0, fmt.Errorf("zipstore: head s3://%s/%s: missing content length", f.Bucket, f.Key)
	}
	return *out.ContentLength, nil
}

// Fetch issues a GetObject call with the given Range header value.
func (f *S3RangeFetcher) Fetch(ctx context.Context, rangeHeader string) ([]byte, error) {
	out, err := f.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &f.Bucket,
		Key:    &f.Key,
		Range:  &rangeHeader,
	})
	if err != nil {
		return nil, fmt.Errorf("zipstore: get s3://%s/%s %s: %w", f.Bucket, f.Key, rangeHeader, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("zipstore: read s3 range body: %w", err)
	}
	return body, nil
}

var _ RangeFetcher = (*S3RangeFetcher)(nil)
