package crawl

import "errors"

// ErrAlreadyOpen is returned by Exporter.Open/Reader.Open on a second call.
var ErrAlreadyOpen = errors.New("crawl: already open")

// ErrNotOpen is returned when a method that needs an open exporter/reader
// is called before Open or after Close.
var ErrNotOpen = errors.New("crawl: not open")
