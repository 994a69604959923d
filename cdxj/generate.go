package cdxj

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/textproto"
	"sort"
	"strconv"
	"strings"

	webarchive "github.com/fairuse/webarchive"
)

// GenerateFromWARC walks every response record in r and emits one Record
// per response, with offset/length pointing at that record's gzip member
// inside filename. Output is stable-sorted by (SURT, Datetime), matching
// the sort a WACZ's index.cdxj member is written with.
//
// filename is not part of the WARC stream itself — it is the name the
// member will be stored under inside the owning WACZ's archive/ directory,
// supplied by the caller assembling the package.
func GenerateFromWARC(r io.Reader, filename string) ([]Record, error) {
	reader := webarchive.NewReader(r)

	var records []Record
	for {
		rec, offset, length, err := reader.NextWithOffset()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cdxj: generate from %s: %w", filename, err)
		}
		if rec.Type() != webarchive.TypeResponse {
			continue
		}

		cdxRec, err := fromResponseRecord(rec, filename, offset, length)
		if err != nil {
			return nil, fmt.Errorf("cdxj: generate from %s: %w", filename, err)
		}
		records = append(records, cdxRec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].SURT != records[j].SURT {
			return records[i].SURT < records[j].SURT
		}
		return records[i].Datetime < records[j].Datetime
	})

	return records, nil
}

func fromResponseRecord(rec *webarchive.Record, filename string, offset, length int64) (Record, error) {
	targetURI := rec.TargetURI()
	surt, err := ToSURT(targetURI)
	if err != nil {
		return Record{}, err
	}

	datetime := rec.Date().UTC().Format("20060102150405")

	status, mime := parseHTTPResponseHead(rec.Content)

	digest := rec.Header.Get("WARC-Payload-Digest")
	if digest == "" {
		digest = webarchive.PayloadDigest(rec.Content)
	}

	data := map[string]any{
		"url":      targetURI,
		"mime":     mime,
		"status":   status,
		"digest":   digest,
		"length":   length,
		"offset":   offset,
		"filename": filename,
	}

	return Record{
		SURT:     surt,
		Host:     strings.SplitN(surt, ")", 2)[0],
		Path:     pathFromURL(targetURI),
		Datetime: datetime,
		Year:     datetime[0:4],
		Month:    datetime[4:6],
		Day:      datetime[6:8],
		Hour:     datetime[8:10],
		Minute:   datetime[10:12],
		Second:   datetime[12:14],
		Data:     data,
	}, nil
}

func pathFromURL(rawURL string) string {
	const sep = "://"
	i := strings.Index(rawURL, sep)
	if i < 0 {
		return ""
	}
	rest := rawURL[i+len(sep):]
	j := strings.IndexByte(rest, '/')
	if j < 0 {
		return "/"
	}
	return rest[j:]
}

// parseHTTPResponseHead reads the status code and Content-Type off a raw
// HTTP response's content block (status line + headers + body, exactly as
// the response record stores it).
func parseHTTPResponseHead(content []byte) (status string, mime string) {
	br := bufio.NewReader(bytes.NewReader(content))

	statusLine, err := br.ReadString('\n')
	if err != nil {
		return "", ""
	}
	fields := strings.Fields(statusLine)
	if len(fields) >= 2 {
		if _, err := strconv.Atoi(fields[1]); err == nil {
			status = fields[1]
		}
	}

	tp := textproto.NewReader(br)
	header, err := tp.ReadMIMEHeader()
	if err != nil && len(header) == 0 {
		return status, ""
	}
	contentType := header.Get(textproto.CanonicalMIMEHeaderKey("Content-Type"))
	mime = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	return status, mime
}
