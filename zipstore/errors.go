package zipstore

import "errors"

// ErrMemberNotFound is returned when a requested member is absent from the
// ZIP's central directory (or the local zip.Reader's file list).
var ErrMemberNotFound = errors.New("zipstore: member not found")

// ErrCorrupt is returned when the EOCD, ZIP64 locator, ZIP64 EOCD, central
// directory, or a local file header does not match its expected signature
// or cannot otherwise be parsed.
var ErrCorrupt = errors.New("zipstore: corrupt zip structure")
