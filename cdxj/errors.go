package cdxj

import "errors"

// ErrInvalidLine is returned when a line does not match the
// SURT SP DATETIME SP JSON_OBJECT grammar.
var ErrInvalidLine = errors.New("cdxj: invalid line")

// ErrIndexNotFound names the case where none of the recognized index member
// names (index.cdxj, index.cdxj.gz, index.cdx, index.cdx.gz) are present in
// a WACZ package. No function in this module returns it: wacz.Open reports
// that case with wacz.ErrNoIndex.
var ErrIndexNotFound = errors.New("cdxj: index member not found")
