package selector

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// FileResolver lists the candidate archive files available under some
// root (a local directory or an S3 prefix), filtered to those whose
// relative path matches a compiled template.
type FileResolver interface {
	Resolve(ctx context.Context) ([]FileInfo, error)
}

// LocalWalker resolves files from a local directory tree, grounded in
// LocalFileResolver.
type LocalWalker struct {
	BasePath string
	Pattern  *regexp.Regexp
}

// NewLocalWalker returns a resolver rooted at basePath, matching entries
// whose path relative to basePath fullmatches pattern.
func NewLocalWalker(basePath string, pattern *regexp.Regexp) *LocalWalker {
	return &LocalWalker{BasePath: basePath, Pattern: pattern}
}

// Resolve walks BasePath and returns a FileInfo for every matching,
// non-directory entry.
func (l *LocalWalker) Resolve(ctx context.Context) ([]FileInfo, error) {
	var out []FileInfo

	err := filepath.WalkDir(l.BasePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.BasePath, path)
		if err != nil {
			return err
		}
		if !l.Pattern.MatchString(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, FileInfo{
			URI:          "file://" + path,
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("selector: walk %s: %w", l.BasePath, err)
	}
	return out, nil
}

var _ FileResolver = (*LocalWalker)(nil)

// s3ListAPI is the subset of *s3.Client S3Lister needs.
type s3ListAPI interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Lister resolves files from an S3 bucket, grounded in
// S3FileResolver.
type S3Lister struct {
	Client  s3ListAPI
	Bucket  string
	Pattern *regexp.Regexp
}

// NewS3Lister returns a resolver over bucket, matching object keys
// against pattern.
func NewS3Lister(client *s3.Client, bucket string, pattern *regexp.Regexp) *S3Lister {
	return &S3Lister{Client: client, Bucket: bucket, Pattern: pattern}
}

// Resolve lists Bucket and returns a FileInfo for every key matching
// Pattern. It makes a single ListObjectsV2 call with no prefix, so only
// the first page of results is examined; further pages are not fetched.
func (s *S3Lister) Resolve(ctx context.Context) ([]FileInfo, error) {
	out, err := s.Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: &s.Bucket})
	if err != nil {
		return nil, fmt.Errorf("selector: list s3://%s: %w", s.Bucket, err)
	}

	var files []FileInfo
	for _, obj := range out.Contents {
		if obj.Key == nil || !s.Pattern.MatchString(*obj.Key) {
			continue
		}
		lastModified := time.Time{}
		if obj.LastModified != nil {
			lastModified = *obj.LastModified
		}
		files = append(files, FileInfo{
			URI:          fmt.Sprintf("s3://%s/%s", s.Bucket, *obj.Key),
			LastModified: lastModified,
		})
	}
	return files, nil
}

var _ FileResolver = (*S3Lister)(nil)
