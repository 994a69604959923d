package crawl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	webarchive "github.com/fairuse/webarchive"
	"github.com/fairuse/webarchive/wacz"
)

// Exporter observes a live crawl's response/request pairs, writes them
// as WARC records, and on Close packages everything into a WACZ — the
// role WaczExporter plays against ScrapyWarcIo in the original source.
type Exporter struct {
	host   Host
	store  wacz.FileStore
	dir    string
	output string

	mu       sync.Mutex
	file     *os.File
	writer   *webarchive.Writer
	warcName string
	opened   bool
}

// NewExporter returns an Exporter that writes its WARC under warcDir and,
// on Close, packages it into a WACZ at waczOutputPath via store.
func NewExporter(host Host, store wacz.FileStore, warcDir, waczOutputPath string) *Exporter {
	return &Exporter{host: host, store: store, dir: warcDir, output: waczOutputPath}
}

// Open creates the backing WARC file and writes its warcinfo record.
func (e *Exporter) Open(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.opened {
		return ErrAlreadyOpen
	}

	filename := webarchive.FileName(e.host.CollectionName(), time.Now(), 0, hostLabel())
	path := filepath.Join(e.dir, filename)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("crawl: open warc file %s: %w", path, err)
	}

	w := webarchive.NewWriter(f)
	if _, err := w.WriteWarcinfo(filename, "webarchive/0.1", e.host.CollectionName(), "obey"); err != nil {
		f.Close()
		return fmt.Errorf("crawl: write warcinfo: %w", err)
	}

	e.file = f
	e.writer = w
	e.warcName = filename
	e.opened = true
	return nil
}

// OnResponse stamps a shared WARC-Date, writes the response record
// followed by its concurrent request record, and increments the
// response_written, request_written and writer_status_count/<code>
// counters — mirroring ScrapyWarcIo.write's ordering guarantee that a
// request/response pair never spans more than one WARC file boundary.
func (e *Exporter) OnResponse(ctx context.Context, req *http.Request, resp *http.Response) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.opened {
		return ErrNotOpen
	}

	date := time.Now()

	responseBody, err := readAndRestoreBody(resp)
	if err != nil {
		return fmt.Errorf("crawl: read response body: %w", err)
	}
	requestBody, err := readAndRestoreRequestBody(req)
	if err != nil {
		return fmt.Errorf("crawl: read request body: %w", err)
	}

	responsePayload := webarchive.HTTPPayload{
		StartLine: fmt.Sprintf("HTTP/1.1 %s", resp.Status),
		Header:    headerFrom(resp.Header),
		Body:      responseBody,
	}
	requestPayload := webarchive.HTTPPayload{
		StartLine: fmt.Sprintf("%s %s HTTP/1.1", req.Method, req.URL.RequestURI()),
		Header:    headerFrom(req.Header),
		Body:      requestBody,
	}

	if _, _, err := e.writer.WriteResponseRequestPair(req.URL.String(), date, responsePayload, requestPayload); err != nil {
		return fmt.Errorf("crawl: write response/request pair: %w", err)
	}

	e.host.Inc("webarchive/exporter/response_written")
	e.host.Inc("webarchive/exporter/request_written")
	e.host.Inc(fmt.Sprintf("webarchive/exporter/writer_status_count/%d", resp.StatusCode))
	return nil
}

// Close packages the recorded WARC into a WACZ via wacz.Writer.
func (e *Exporter) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.opened {
		return ErrNotOpen
	}

	if err := e.file.Close(); err != nil {
		return fmt.Errorf("crawl: close warc file: %w", err)
	}

	data, err := os.ReadFile(e.file.Name())
	if err != nil {
		return fmt.Errorf("crawl: read warc file for packaging: %w", err)
	}

	w := wacz.NewWriter(e.store, e.host.CollectionName())
	if err := w.Write(ctx, e.warcName, data, e.output); err != nil {
		return fmt.Errorf("crawl: package wacz: %w", err)
	}

	e.opened = false
	return nil
}

func headerFrom(h http.Header) *webarchive.Header {
	wh := webarchive.NewHeader()
	for key, values := range h {
		for _, v := range values {
			wh.Set(key, v)
		}
	}
	return wh
}

func hostLabel() string {
	h, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	return h
}

// readAndRestoreBody reads resp.Body fully and replaces it with a fresh
// reader over the same bytes, so a caller downstream of the exporter
// still sees an unconsumed body.
func readAndRestoreBody(resp *http.Response) ([]byte, error) {
	if resp.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

// readAndRestoreRequestBody does the same for a request body.
func readAndRestoreRequestBody(req *http.Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}
