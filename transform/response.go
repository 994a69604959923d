package transform

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	webarchive "github.com/fairuse/webarchive"
)

// ResponseFromWARC parses rec's content block back into an http.Response,
// grounded in WarcRecordTransformer.response_for_record. It never returns
// (nil, nil): a record that is not of type "response" yields
// ErrUnexpectedRecordType, and a content-type other than application/http
// or an unparseable status line yields ErrUnsupportedRecordType, so the
// caller can skip the record on a typed error rather than a bare None.
func ResponseFromWARC(rec *webarchive.Record) (*http.Response, error) {
	if rec.Type() != webarchive.TypeResponse {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedRecordType, rec.Type())
	}

	contentType := strings.SplitN(rec.ContentType(), ";", 2)[0]
	if contentType != "application/http" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRecordType, contentType)
	}

	parts := bytes.SplitN(rec.Content, []byte("\r\n\r\n"), 2)
	head := parts[0]
	var body []byte
	if len(parts) > 1 {
		body = parts[1]
	}

	headLines := bytes.Split(head, []byte("\r\n"))
	if len(headLines) == 0 {
		return nil, fmt.Errorf("%w: empty response head", ErrUnsupportedRecordType)
	}

	statusLine := strings.Fields(string(headLines[0]))
	if len(statusLine) < 2 {
		return nil, fmt.Errorf("%w: malformed status line %q", ErrUnsupportedRecordType, headLines[0])
	}
	proto := statusLine[0]
	statusCode, err := strconv.Atoi(statusLine[1])
	if err != nil {
		return nil, fmt.Errorf("%w: malformed status code %q", ErrUnsupportedRecordType, statusLine[1])
	}

	headerBlock := append(bytes.Join(headLines[1:], []byte("\r\n")), "\r\n\r\n"...)
	tp := textproto.NewReader(bufio.NewReader(bytes.NewReader(headerBlock)))
	mimeHeader, err := tp.ReadMIMEHeader()
	if err != nil && len(mimeHeader) == 0 && err != io.EOF {
		return nil, fmt.Errorf("transform: parse response headers: %w", err)
	}

	resp := &http.Response{
		Status:        strings.TrimSpace(strings.Join(statusLine[1:], " ")),
		StatusCode:    statusCode,
		Proto:         proto,
		Header:        http.Header(mimeHeader),
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}

	return resp, nil
}
