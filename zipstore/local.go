package zipstore

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Local serves a ZIP container that lives on the local filesystem, via the
// standard library's archive/zip directory parsing.
type Local struct {
	path string
	zr   *zip.ReadCloser
}

// OpenLocal opens the ZIP at path. The central directory is parsed once,
// up front, exactly as archive/zip.OpenReader does.
func OpenLocal(path string) (*Local, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("zipstore: open %s: %w", path, err)
	}
	return &Local{path: path, zr: zr}, nil
}

// Close releases the underlying file handle.
func (l *Local) Close() error {
	return l.zr.Close()
}

func (l *Local) find(member string) (*zip.File, error) {
	for _, f := range l.zr.File {
		if f.Name == member {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, member)
}

// Exists reports whether the ZIP file is reachable on disk.
func (l *Local) Exists(ctx context.Context) (bool, error) {
	_, err := os.Stat(l.path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("zipstore: stat %s: %w", l.path, err)
	}
	return true, nil
}

// ReadAll returns the full contents of member, transparently gunzipped if
// its name ends in ".gz".
func (l *Local) ReadAll(ctx context.Context, member string) ([]byte, error) {
	f, err := l.find(member)
	if err != nil {
		return nil, err
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("zipstore: open member %s: %w", member, err)
	}
	defer rc.Close()

	if strings.HasSuffix(member, ".gz") {
		return readAllGzip(rc)
	}
	return io.ReadAll(rc)
}

// ReadPart returns the raw [offset, offset+length) slice of member's own
// byte stream, uninterpreted — no gzip decoding even when member ends in
// ".gz". A CDXJ offset/length pair names the byte span of one WARC gzip
// member, and warc.ReadSingleRecord is the one that gunzips it; decoding
// here would just be undone and redone downstream.
func (l *Local) ReadPart(ctx context.Context, member string, offset, length int64) ([]byte, error) {
	f, err := l.find(member)
	if err != nil {
		return nil, err
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("zipstore: open member %s: %w", member, err)
	}
	defer rc.Close()

	if _, err := io.CopyN(io.Discard, rc, offset); err != nil {
		return nil, fmt.Errorf("zipstore: seek to offset %d in %s: %w", offset, member, err)
	}

	part := make([]byte, length)
	if _, err := io.ReadFull(rc, part); err != nil {
		return nil, fmt.Errorf("zipstore: read %d bytes at offset %d in %s: %w", length, offset, member, err)
	}
	return part, nil
}

func readAllGzip(r io.Reader) ([]byte, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("zipstore: gunzip: %w", err)
	}
	defer gz.Close()
	return io.ReadAll(gz)
}

var _ Backend = (*Local)(nil)
