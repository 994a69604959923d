package selector

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestLocalWalkerResolve(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"archive_1.wacz", "archive_2.warc", "archive_3.wacz"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	pattern, err := CompileTemplate("{filename}", "testspider")
	if err != nil {
		t.Fatalf("CompileTemplate: %v", err)
	}

	walker := NewLocalWalker(dir, pattern)
	files, err := walker.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f.URI))
	}
	sort.Strings(names)

	want := []string{"archive_1.wacz", "archive_3.wacz"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
