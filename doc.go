// Package warc reads and writes WARC files (https://iipc.github.io/warc-specifications/)
// as gzip-member-per-record streams, the way they are produced and consumed
// during a web crawl.
//
// Each record is its own independent gzip member so a reader can decompress
// any single record without scanning from the start of the file. Version
// 1.0 and 1.1 are both supported on read; writes emit the record's own
// Version, which is 1.1 for a NewRecord or when unset.
package warc
