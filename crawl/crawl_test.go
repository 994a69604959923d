package crawl

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	webarchive "github.com/fairuse/webarchive"
	"github.com/fairuse/webarchive/selector"
	"github.com/fairuse/webarchive/wacz"
	"github.com/fairuse/webarchive/zipstore"
)

type testHost struct {
	mu       sync.Mutex
	counters map[string]int
	domains  []string
	archive  *regexp.Regexp
}

func newTestHost(domains []string, archive *regexp.Regexp) *testHost {
	return &testHost{counters: make(map[string]int), domains: domains, archive: archive}
}

func (h *testHost) CollectionName() string       { return "test-collection" }
func (h *testHost) AllowedDomains() []string      { return h.domains }
func (h *testHost) ArchiveRegexp() *regexp.Regexp { return h.archive }

func (h *testHost) Inc(counter string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.counters[counter]++
}

func (h *testHost) count(counter string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counters[counter]
}

func buildWACZFixture(t *testing.T, dir, name, targetURL string) string {
	t.Helper()

	var buf bytes.Buffer
	w := webarchive.NewWriter(&buf)

	response := webarchive.HTTPPayload{
		StartLine: "HTTP/1.1 200 OK",
		Header:    headerWithContentType("text/html"),
		Body:      []byte("<html>archived</html>"),
	}
	request := webarchive.HTTPPayload{
		StartLine: "GET / HTTP/1.1",
		Header:    webarchive.NewHeader(),
	}

	date := time.Date(2024, 10, 7, 0, 0, 0, 0, time.UTC)
	if _, _, err := w.WriteResponseRequestPair(targetURL, date, response, request); err != nil {
		t.Fatalf("WriteResponseRequestPair: %v", err)
	}

	outPath := filepath.Join(dir, name+".wacz")
	store := wacz.NewLocalFileStore(dir)
	if err := wacz.NewWriter(store, "test").Write(context.Background(), name+".warc", buf.Bytes(), name+".wacz"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return outPath
}

func headerWithContentType(contentType string) *webarchive.Header {
	h := webarchive.NewHeader()
	h.Set("Content-Type", contentType)
	return h
}

func TestReaderOnRequestHitAndMiss(t *testing.T) {
	dir := t.TempDir()
	path := buildWACZFixture(t, dir, "archive", "http://example.com/")

	backend, err := zipstore.OpenLocal(path)
	if err != nil {
		t.Fatalf("OpenLocal: %v", err)
	}
	defer backend.Close()

	host := newTestHost(nil, nil)
	reader := NewReader(host)
	if err := reader.Open(context.Background(), []zipstore.Backend{backend}); err != nil {
		t.Fatalf("Open: %v", err)
	}

	hitReq := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	resp, handled, err := reader.OnRequest(context.Background(), hitReq)
	if err != nil {
		t.Fatalf("OnRequest hit: %v", err)
	}
	if !handled {
		t.Fatal("expected hit request to be handled")
	}
	if resp.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "<html>archived</html>" {
		t.Errorf("body = %q", body)
	}
	if host.count("webarchive/hit") != 1 {
		t.Errorf("hit counter = %d, want 1", host.count("webarchive/hit"))
	}

	missReq := httptest.NewRequest(http.MethodGet, "http://example.com/missing", nil)
	missResp, handled, err := reader.OnRequest(context.Background(), missReq)
	if err != nil {
		t.Fatalf("OnRequest miss: %v", err)
	}
	if !handled {
		t.Fatal("expected miss to still be handled (synthesized 404)")
	}
	if missResp.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", missResp.StatusCode)
	}
	if host.count("webarchive/response_not_found") != 1 {
		t.Errorf("response_not_found counter = %d, want 1", host.count("webarchive/response_not_found"))
	}
}

func TestReaderOnRequestOffSiteSkip(t *testing.T) {
	dir := t.TempDir()
	path := buildWACZFixture(t, dir, "archive", "http://example.com/")

	backend, err := zipstore.OpenLocal(path)
	if err != nil {
		t.Fatalf("OpenLocal: %v", err)
	}
	defer backend.Close()

	host := newTestHost([]string{"allowed.com"}, nil)
	reader := NewReader(host)
	if err := reader.Open(context.Background(), []zipstore.Backend{backend}); err != nil {
		t.Fatalf("Open: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	_, handled, err := reader.OnRequest(context.Background(), req)
	if err != nil {
		t.Fatalf("OnRequest: %v", err)
	}
	if handled {
		t.Error("expected off-site request to be skipped, not handled")
	}
	if host.count("webarchive/crawl_skip/off_site") != 1 {
		t.Errorf("off_site skip counter = %d, want 1", host.count("webarchive/crawl_skip/off_site"))
	}
}

func TestResolveSourceURIsPicksMatchingFileWithStrategy(t *testing.T) {
	dir := t.TempDir()
	spiderDir := filepath.Join(dir, "crawler1")
	if err := os.MkdirAll(spiderDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	olderPath := buildWACZFixture(t, spiderDir, "20230101000000-0", "http://example.com/old")
	newerPath := buildWACZFixture(t, spiderDir, "20240101000000-0", "http://example.com/new")

	target := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := os.Chtimes(olderPath, target.Add(-24*time.Hour), target.Add(-24*time.Hour)); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	if err := os.Chtimes(newerPath, target.Add(24*time.Hour), target.Add(24*time.Hour)); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	cfg := &Config{
		WaczSourceURI:      filepath.Join(dir, "{spider}", "{timestamp}-0.wacz"),
		WaczLookupStrategy: "after",
		WaczLookupTarget:   target,
	}

	registry := selector.NewRegistry()
	uris, err := ResolveSourceURIs(context.Background(), cfg, "crawler1", registry)
	if err != nil {
		t.Fatalf("ResolveSourceURIs: %v", err)
	}
	if len(uris) != 1 {
		t.Fatalf("got %d uris, want 1: %v", len(uris), uris)
	}
	got := filepath.Base(strings.TrimPrefix(uris[0], "file://"))
	if got != filepath.Base(newerPath) {
		t.Errorf("resolved %q, want the newer file %q", got, filepath.Base(newerPath))
	}
}

func TestReaderOpenFromConfigReplaysResolvedSource(t *testing.T) {
	dir := t.TempDir()
	spiderDir := filepath.Join(dir, "crawler1")
	if err := os.MkdirAll(spiderDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	buildWACZFixture(t, spiderDir, "20240101000000-0", "http://example.com/")

	cfg := &Config{
		WaczSourceURI:      filepath.Join(dir, "{spider}", "{timestamp}-0.wacz"),
		WaczLookupStrategy: "after",
		WaczLookupTarget:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	host := newTestHost(nil, nil)
	reader := NewReader(host)
	if err := reader.OpenFromConfig(context.Background(), cfg, "crawler1", selector.NewRegistry()); err != nil {
		t.Fatalf("OpenFromConfig: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	resp, handled, err := reader.OnRequest(context.Background(), req)
	if err != nil {
		t.Fatalf("OnRequest: %v", err)
	}
	if !handled || resp.StatusCode != 200 {
		t.Fatalf("expected a replayed hit, got handled=%v resp=%v", handled, resp)
	}
}

func TestExporterWritesAndPackages(t *testing.T) {
	warcDir := t.TempDir()
	waczDir := t.TempDir()
	host := newTestHost(nil, nil)
	store := wacz.NewLocalFileStore(waczDir)

	exp := NewExporter(host, store, warcDir, "out.wacz")
	if err := exp.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "http://example.com/page", nil)
	resp := &http.Response{
		Status:     "200 OK",
		StatusCode: 200,
		Header:     http.Header{"Content-Type": []string{"text/html"}},
		Body:       io.NopCloser(bytes.NewReader([]byte("<html>live</html>"))),
	}

	if err := exp.OnResponse(context.Background(), req, resp); err != nil {
		t.Fatalf("OnResponse: %v", err)
	}
	if host.count("webarchive/exporter/response_written") != 1 {
		t.Errorf("response_written counter = %d, want 1", host.count("webarchive/exporter/response_written"))
	}
	if host.count("webarchive/exporter/request_written") != 1 {
		t.Errorf("request_written counter = %d, want 1", host.count("webarchive/exporter/request_written"))
	}
	if host.count("webarchive/exporter/writer_status_count/200") != 1 {
		t.Errorf("writer_status_count/200 counter = %d, want 1", host.count("webarchive/exporter/writer_status_count/200"))
	}

	if err := exp.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(filepath.Join(waczDir, "out.wacz")); err != nil {
		t.Errorf("expected packaged wacz file: %v", err)
	}
}
