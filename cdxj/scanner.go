package cdxj

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// LineScanner streams CDXJ records one line at a time from r, without
// collecting them itself; wacz.Open uses it to parse an index member.
// name is the index member's filename; a ".gz" suffix selects transparent
// gzip decompression.
type LineScanner struct {
	scanner *bufio.Scanner
	gz      *gzip.Reader
	cur     Record
	err     error

	total   int
	invalid int
}

// NewLineScanner wraps r for streaming decode. name is used only to decide
// whether r is gzip-compressed (suffix ".gz"); it is not otherwise read.
func NewLineScanner(r io.Reader, name string) (*LineScanner, error) {
	ls := &LineScanner{}

	if strings.HasSuffix(name, ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("cdxj: open gzip index %s: %w", name, err)
		}
		ls.gz = gz
		ls.scanner = bufio.NewScanner(gz)
	} else {
		ls.scanner = bufio.NewScanner(r)
	}
	ls.scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	return ls, nil
}

// Scan advances to the next successfully parsed, non-blank line. A line
// that fails to parse is skipped rather than treated as fatal — callers
// that need to enforce a failure-rate ceiling on the index as a whole
// should check Invalid/Total after Scan returns false. Err reports only
// an underlying I/O failure from the scanner itself.
func (ls *LineScanner) Scan() bool {
	for ls.scanner.Scan() {
		line := strings.TrimSpace(ls.scanner.Text())
		if line == "" {
			continue
		}
		ls.total++
		rec, err := Parse(line)
		if err != nil {
			ls.invalid++
			continue
		}
		ls.cur = rec
		return true
	}
	ls.err = ls.scanner.Err()
	return false
}

// Record returns the record decoded by the most recent successful Scan.
func (ls *LineScanner) Record() Record {
	return ls.cur
}

// Err returns the underlying scanner's I/O error, if any. It does not
// reflect lines that failed to parse — see Invalid.
func (ls *LineScanner) Err() error {
	return ls.err
}

// Total returns the number of non-blank lines seen so far.
func (ls *LineScanner) Total() int {
	return ls.total
}

// Invalid returns the number of lines seen so far that failed to parse.
func (ls *LineScanner) Invalid() int {
	return ls.invalid
}

// Close releases the gzip reader, if one was opened.
func (ls *LineScanner) Close() error {
	if ls.gz != nil {
		return ls.gz.Close()
	}
	return nil
}
