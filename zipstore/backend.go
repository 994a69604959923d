package zipstore

import "context"

// Backend serves ranges out of a ZIP container. ReadAll decompresses a
// ".gz"-suffixed member transparently; ReadPart, and ReadAll on every other
// member, return bytes exactly as stored (WACZ members MUST use the STORED
// method, so a "part" read maps 1:1 onto the container's own byte range —
// see ReadPart).
type Backend interface {
	// Exists reports whether the underlying container can be reached at
	// all (the file is present locally, or the remote object responds to
	// a HEAD/metadata probe).
	Exists(ctx context.Context) (bool, error)

	// ReadAll returns the full, decompressed-if-gzipped contents of
	// member.
	ReadAll(ctx context.Context, member string) ([]byte, error)

	// ReadPart returns the raw [offset, offset+length) slice of member's
	// own (uncompressed, since STORED) byte stream. It does not gunzip the
	// slice, even for a ".gz"-suffixed member.
	ReadPart(ctx context.Context, member string, offset, length int64) ([]byte, error)
}

// RangeFetcher is the minimal transport a Ranged backend needs: fetch an
// HTTP-style byte range, and learn the object's total size. Local
// filesystems don't need this; it exists purely so the EOCD/ZIP64/central
// directory walk in ranged.go is written once and shared by every remote
// transport.
type RangeFetcher interface {
	// Fetch returns the bytes named by an HTTP Range header value, e.g.
	// "bytes=0-1023".
	Fetch(ctx context.Context, rangeHeader string) ([]byte, error)

	// Size returns the object's total byte length.
	Size(ctx context.Context) (int64, error)
}
