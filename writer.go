package warc

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	uuid "github.com/satori/go.uuid"
)

// Writer appends WARC records to a single underlying stream, one gzip
// member per record. It owns exclusive append access to that stream —
// concurrent writers to the same file are not supported, so Writer
// serializes calls with a mutex rather than assuming the caller already
// does.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	offset int64
}

// NewWriter wraps w (expected to be positioned for appending, e.g. an
// *os.File opened O_APPEND) for WARC record writes.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// NewRecordID returns a fresh "urn:uuid:<v4>" record identifier.
func NewRecordID() string {
	return "urn:uuid:" + uuid.NewV4().String()
}

// countingWriter tracks bytes written so Writer can report each record's
// offset in the stream, which CDXJ generation needs.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteRecord gzips rec into its own member and appends it to the stream.
// It returns the byte offset the member starts at and the member's
// compressed length, the pair a CDXJ record needs for offset+length.
func (wr *Writer) WriteRecord(rec *Record) (offset int64, length int64, err error) {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	rec.Header.Set("Content-Length", fmt.Sprintf("%d", len(rec.Content)))

	cw := &countingWriter{w: wr.w}
	gz := gzip.NewWriter(cw)

	if err := writeRecordHeader(gz, rec); err != nil {
		return 0, 0, err
	}
	if _, err := gz.Write(rec.Content); err != nil {
		return 0, 0, fmt.Errorf("warc: write content: %w", err)
	}
	if _, err := gz.Write([]byte("\r\n\r\n")); err != nil {
		return 0, 0, fmt.Errorf("warc: write terminator: %w", err)
	}
	if err := gz.Close(); err != nil {
		return 0, 0, fmt.Errorf("warc: close gzip member: %w", err)
	}

	start := wr.offset
	wr.offset += cw.n
	return start, cw.n, nil
}

func writeRecordHeader(w io.Writer, rec *Record) error {
	version := rec.Version
	if version == "" {
		version = Version1_1
	}
	if _, err := fmt.Fprintf(w, "%s\r\n", version); err != nil {
		return fmt.Errorf("warc: write version line: %w", err)
	}
	for _, key := range rec.Header.Keys() {
		if _, err := fmt.Fprintf(w, "%s: %s\r\n", key, rec.Header.Get(key)); err != nil {
			return fmt.Errorf("warc: write header %q: %w", key, err)
		}
	}
	if _, err := io.WriteString(w, "\r\n"); err != nil {
		return fmt.Errorf("warc: write header terminator: %w", err)
	}
	return nil
}

// WriteWarcinfo writes the mandatory leading warcinfo record describing the
// crawl. filename becomes the record's WARC-Filename header; software,
// collection (as isPartOf) and robotsPolicy (as robots) go into its
// application/warc-fields body. It returns the new record's ID.
func (wr *Writer) WriteWarcinfo(filename, software, collection string, robotsPolicy string) (string, error) {
	rec := NewRecord()
	rec.Header.Set("WARC-Type", string(TypeWarcinfo))
	recordID := NewRecordID()
	rec.Header.Set("WARC-Record-ID", "<"+recordID+">")
	rec.Header.Set("WARC-Date", time.Now().UTC().Format(time.RFC3339))
	rec.Header.Set("WARC-Filename", filename)
	rec.Header.Set("Content-Type", "application/warc-fields")

	body := fmt.Sprintf(
		"software: %s\r\nformat: WARC File Format 1.1\r\nconformsTo: https://iipc.github.io/warc-specifications/specifications/warc-format/warc-1.1/\r\nisPartOf: %s\r\nrobots: %s\r\n",
		software, collection, robotsPolicy,
	)
	rec.Content = []byte(body)

	if _, _, err := wr.WriteRecord(rec); err != nil {
		return "", err
	}
	return recordID, nil
}

// HTTPPayload is the minimal HTTP message shape WriteResponseRequestPair
// needs: a status/request line, ordered headers, and a body.
type HTTPPayload struct {
	StartLine string
	Header    *Header
	Body      []byte
}

// Bytes renders the HTTP message as WARC expects it embedded in a
// response/request record's content block: start line, headers, blank
// line, body.
func (p HTTPPayload) Bytes() []byte {
	var buf []byte
	buf = append(buf, p.StartLine...)
	buf = append(buf, "\r\n"...)
	if p.Header != nil {
		for _, key := range p.Header.Keys() {
			buf = append(buf, key...)
			buf = append(buf, ": "...)
			buf = append(buf, p.Header.Get(key)...)
			buf = append(buf, "\r\n"...)
		}
	}
	buf = append(buf, "\r\n"...)
	buf = append(buf, p.Body...)
	return buf
}

// WriteResponseRequestPair writes a response record followed by its
// concurrent request record, sharing a single WARC-Date and wiring
// WARC-Concurrent-To from request to response — the invariant testable
// property #6 checks.
func (wr *Writer) WriteResponseRequestPair(targetURI string, date time.Time, response, request HTTPPayload) (responseID, requestID string, err error) {
	dateStr := date.UTC().Format(time.RFC3339)

	responsePayload := response.Bytes()
	respRec := NewRecord()
	responseID = NewRecordID()
	respRec.Header.Set("WARC-Type", string(TypeResponse))
	respRec.Header.Set("WARC-Record-ID", "<"+responseID+">")
	respRec.Header.Set("WARC-Target-URI", targetURI)
	respRec.Header.Set("WARC-Date", dateStr)
	respRec.Header.Set("WARC-Payload-Digest", PayloadDigest(responsePayload))
	respRec.Header.Set("Content-Type", "application/http; msgtype=response")
	respRec.Content = responsePayload

	if _, _, err := wr.WriteRecord(respRec); err != nil {
		return "", "", fmt.Errorf("warc: write response record: %w", err)
	}

	requestPayload := request.Bytes()
	reqRec := NewRecord()
	requestID = NewRecordID()
	reqRec.Header.Set("WARC-Type", string(TypeRequest))
	reqRec.Header.Set("WARC-Record-ID", "<"+requestID+">")
	reqRec.Header.Set("WARC-Target-URI", targetURI)
	reqRec.Header.Set("WARC-Date", dateStr)
	reqRec.Header.Set("WARC-Concurrent-To", "<"+responseID+">")
	reqRec.Header.Set("WARC-Payload-Digest", PayloadDigest(requestPayload))
	reqRec.Header.Set("Content-Type", "application/http; msgtype=request")
	reqRec.Content = requestPayload

	if _, _, err := wr.WriteRecord(reqRec); err != nil {
		return "", "", fmt.Errorf("warc: write request record: %w", err)
	}

	return responseID, requestID, nil
}
