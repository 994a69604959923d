package cdxj

import (
	"bytes"
	"testing"
	"time"

	webarchive "github.com/fairuse/webarchive"
)

func TestGenerateFromWARC(t *testing.T) {
	var buf bytes.Buffer
	w := webarchive.NewWriter(&buf)

	response := webarchive.HTTPPayload{
		StartLine: "HTTP/1.1 200 OK",
		Header:    headerOf("Content-Type", "text/html; charset=utf-8"),
		Body:      []byte("<html></html>"),
	}
	request := webarchive.HTTPPayload{
		StartLine: "GET /index HTTP/1.1",
		Header:    headerOf("Host", "example.com"),
	}

	date := time.Date(2024, 10, 3, 0, 0, 0, 0, time.UTC)
	if _, _, err := w.WriteResponseRequestPair("http://example.com/index", date, response, request); err != nil {
		t.Fatalf("WriteResponseRequestPair: %v", err)
	}

	records, err := GenerateFromWARC(bytes.NewReader(buf.Bytes()), "example-20241003000000-00000-test.warc.gz")
	if err != nil {
		t.Fatalf("GenerateFromWARC: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1 (request records are skipped)", len(records))
	}

	rec := records[0]
	if rec.SURT != "com,example)/index" {
		t.Errorf("SURT = %q", rec.SURT)
	}
	if rec.Datetime != "20241003000000" {
		t.Errorf("Datetime = %q", rec.Datetime)
	}
	if rec.Data["status"] != "200" {
		t.Errorf("status = %v", rec.Data["status"])
	}
	if rec.Data["mime"] != "text/html" {
		t.Errorf("mime = %v", rec.Data["mime"])
	}
	if rec.Data["filename"] != "example-20241003000000-00000-test.warc.gz" {
		t.Errorf("filename = %v", rec.Data["filename"])
	}
	if rec.Data["offset"].(int64) != 0 {
		t.Errorf("offset = %v, want 0", rec.Data["offset"])
	}
	length, ok := rec.Data["length"].(int64)
	if !ok || length <= 0 {
		t.Errorf("length = %v, want positive int64", rec.Data["length"])
	}
}

func headerOf(key, value string) *webarchive.Header {
	h := webarchive.NewHeader()
	h.Set(key, value)
	return h
}
