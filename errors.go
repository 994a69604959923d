package warc

import "errors"

// ErrUnsupportedVersion is returned when a record's WARC/x.y line names a
// version other than 1.0 or 1.1.
var ErrUnsupportedVersion = errors.New("warc: unsupported version")

// ErrTruncatedRecord is returned when a record's Content-Length promises
// more body than the underlying stream actually delivered — the tail of an
// interrupted write, tolerated by readers rather than treated as
// corruption of prior records.
var ErrTruncatedRecord = errors.New("warc: truncated record")

// ErrMalformedHeader is returned when the WARC/x.y line or a header line
// cannot be parsed.
var ErrMalformedHeader = errors.New("warc: malformed header block")
