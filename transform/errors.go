package transform

import "errors"

// ErrUnexpectedRecordType is returned by ResponseFromWARC when rec is not
// a "response" record.
var ErrUnexpectedRecordType = errors.New("transform: unexpected record type")

// ErrUnsupportedRecordType is returned by ResponseFromWARC when rec's
// Content-Type is not "application/http" — the only payload encoding
// this module knows how to parse back into an HTTP response — or when the
// payload's HTTP head or status line cannot be parsed.
var ErrUnsupportedRecordType = errors.New("transform: unsupported record content-type")
