package wacz

import "errors"

// ErrNoIndex is returned when none of the recognized index member names
// exist in a package.
var ErrNoIndex = errors.New("wacz: no index member found")

// ErrRecordNotFound is returned when a CDXJ record's filename/offset/length
// cannot be resolved to bytes in the backing archive.
var ErrRecordNotFound = errors.New("wacz: record not found")
