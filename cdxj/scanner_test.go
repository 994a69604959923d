package cdxj

import (
	"bytes"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func TestLineScannerPlain(t *testing.T) {
	data := strings.Join([]string{
		`com,example)/a 20240101000000 {"url":"http://example.com/a"}`,
		``,
		`com,example)/b 20240101000000 {"url":"http://example.com/b"}`,
	}, "\n")

	ls, err := NewLineScanner(strings.NewReader(data), "index.cdxj")
	if err != nil {
		t.Fatalf("NewLineScanner: %v", err)
	}
	defer ls.Close()

	var got []string
	for ls.Scan() {
		got = append(got, ls.Record().SURT)
	}
	if err := ls.Err(); err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if len(got) != 2 || got[0] != "com,example)/a" || got[1] != "com,example)/b" {
		t.Errorf("unexpected scan results: %v", got)
	}
}

func TestLineScannerGzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte(`com,example)/a 20240101000000 {"url":"http://example.com/a"}` + "\n"))
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip writer: %v", err)
	}

	ls, err := NewLineScanner(bytes.NewReader(buf.Bytes()), "index.cdxj.gz")
	if err != nil {
		t.Fatalf("NewLineScanner: %v", err)
	}
	defer ls.Close()

	if !ls.Scan() {
		t.Fatalf("expected a record, scan err: %v", ls.Err())
	}
	if ls.Record().SURT != "com,example)/a" {
		t.Errorf("SURT = %q", ls.Record().SURT)
	}
}

func TestLineScannerInvalidLineSkipped(t *testing.T) {
	data := `com,example)/a {"url":"x"}` + "\n"

	ls, err := NewLineScanner(strings.NewReader(data), "index.cdxj")
	if err != nil {
		t.Fatalf("NewLineScanner: %v", err)
	}
	defer ls.Close()

	if ls.Scan() {
		t.Fatal("expected the invalid line to be skipped, leaving no record")
	}
	if ls.Err() != nil {
		t.Fatalf("expected no I/O error for a skipped line, got %v", ls.Err())
	}
	if ls.Total() != 1 || ls.Invalid() != 1 {
		t.Fatalf("Total/Invalid = %d/%d, want 1/1", ls.Total(), ls.Invalid())
	}
}
