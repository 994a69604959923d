package cdxj

import "testing"

func mustParse(t *testing.T, line string) Record {
	t.Helper()
	rec, err := Parse(line)
	if err != nil {
		t.Fatalf("Parse(%q): %v", line, err)
	}
	return rec
}

func TestBuildIndexLookupReturnsMostRecent(t *testing.T) {
	records := []Record{
		mustParse(t, `com,example)/a 20240101000000 {"url":"http://example.com/a","status":"200"}`),
		mustParse(t, `com,example)/a 20240102000000 {"url":"http://example.com/a","status":"304"}`),
		mustParse(t, `com,example)/b 20240101000000 {"url":"http://example.com/b","status":"200"}`),
	}

	idx := BuildIndex(records)

	got, ok := idx.Lookup("http://example.com/a")
	if !ok {
		t.Fatal("expected a hit")
	}
	if got.Data["status"] != "304" {
		t.Errorf("expected most recent record, got status %v", got.Data["status"])
	}

	if _, ok := idx.Lookup("http://example.com/missing"); ok {
		t.Error("expected miss for unseen url")
	}

	if idx.Len() != 3 {
		t.Errorf("Len() = %d, want 3", idx.Len())
	}

	history := idx.History("http://example.com/a")
	if len(history) != 2 {
		t.Errorf("History len = %d, want 2", len(history))
	}
}

func TestIndexAllIsRestartable(t *testing.T) {
	records := []Record{
		mustParse(t, `com,example)/a 20240101000000 {"url":"http://example.com/a"}`),
	}
	idx := BuildIndex(records)

	first := idx.All()
	second := idx.All()
	first[0].SURT = "mutated"

	if second[0].SURT == "mutated" {
		t.Error("All() should return independent copies, not share backing array mutation")
	}
}
