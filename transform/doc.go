// Package transform converts between the wire shapes this module reads
// (warc.Record, cdxj.Record) and the net/http request/response types a
// replaying caller actually wants to work with.
package transform
