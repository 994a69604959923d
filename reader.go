package warc

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Reader decodes a WARC stream one gzip member at a time, yielding one
// Record per member, for full-file iteration over a WARC.
type Reader struct {
	src    *bufio.Reader
	offset int64
}

// NewReader wraps r for sequential record-by-record decoding.
func NewReader(r io.Reader) *Reader {
	return &Reader{src: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next record, or io.EOF once the stream is exhausted.
func (rd *Reader) Next() (*Record, error) {
	rec, _, _, err := rd.NextWithOffset()
	return rec, err
}

// NextWithOffset is Next plus the gzip member's byte offset and length
// within the stream read so far — the pair cdxj.GenerateFromWARC needs to
// populate a CDXJ record's offset/length fields.
func (rd *Reader) NextWithOffset() (*Record, int64, int64, error) {
	if _, err := rd.src.Peek(1); err != nil {
		if err == io.EOF {
			return nil, 0, 0, io.EOF
		}
		return nil, 0, 0, fmt.Errorf("warc: peek next member: %w", err)
	}

	start := rd.offset
	cr := &countingReader{r: rd.src}

	gz, err := gzip.NewReader(cr)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("warc: open gzip member: %w", err)
	}
	defer gz.Close()
	gz.Multistream(false) // stop at this member's trailer; don't slide into the next record

	rec, err := decodeRecord(gz)
	if err != nil {
		return nil, 0, 0, err
	}
	// Drain to the member's end so its gzip trailer is counted and consumed.
	if _, err := io.Copy(io.Discard, gz); err != nil {
		return nil, 0, 0, fmt.Errorf("warc: drain gzip member: %w", err)
	}

	rd.offset = start + cr.n
	return rec, start, cr.n, nil
}

// countingReader also implements io.ByteReader so the gzip decoder reads
// from it directly instead of buffering ahead into the next member.
type countingReader struct {
	r *bufio.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

// ReadSingleRecord gunzips b (a byte-exact slice previously located via a
// CDXJ offset/length pair) and decodes the single record it contains.
func ReadSingleRecord(b []byte) (*Record, error) {
	gz, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("warc: open gzip member: %w", err)
	}
	defer gz.Close()
	return decodeRecord(gz)
}

func decodeRecord(r io.Reader) (*Record, error) {
	br := bufio.NewReaderSize(r, 8*1024)

	versionLine, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("warc: read version line: %w", err)
	}
	versionLine = strings.TrimRight(versionLine, "\r\n")
	version := Version(versionLine)
	if version != Version1_0 && version != Version1_1 {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, versionLine)
	}

	tp := textproto.NewReader(br)
	mimeHeader, err := tp.ReadMIMEHeader()
	// ReadMIMEHeader returns io.EOF-wrapped errors alongside a partial
	// header when the blank-line terminator is the very next line; treat
	// that as success since we only need the headers already parsed.
	if err != nil && len(mimeHeader) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}

	header := NewHeader()
	for key, values := range mimeHeader {
		// Multi-value headers are flattened to last-wins.
		header.Set(key, values[len(values)-1])
	}

	contentLength, err := strconv.ParseInt(header.Get("Content-Length"), 10, 64)
	if err != nil {
		contentLength = 0
	}

	content := make([]byte, contentLength)
	if contentLength > 0 {
		if _, err := io.ReadFull(br, content); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTruncatedRecord, err)
		}
	}

	// Consume the mandatory \r\n\r\n record terminator. Tolerate a short
	// read here: an interrupted write leaves a partial gzip member at the
	// tail, and that shouldn't fail the prior record over it.
	terminator := make([]byte, 4)
	if _, err := io.ReadFull(br, terminator); err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("warc: read record terminator: %w", err)
	}

	return &Record{Version: version, Header: header, Content: content}, nil
}
