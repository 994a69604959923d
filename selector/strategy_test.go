package selector

import (
	"testing"
	"time"
)

func sampleFiles() []FileInfo {
	return []FileInfo{
		{URI: "archive_1.wacz", LastModified: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{URI: "archive_2.wacz", LastModified: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		{URI: "archive_3.wacz", LastModified: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func TestBeforeStrategy(t *testing.T) {
	cases := []struct {
		target time.Time
		want   string
		ok     bool
	}{
		{time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), "archive_2.wacz", true},
		{time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), "", false},
		{time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), "archive_2.wacz", true},
	}
	for _, c := range cases {
		got, ok := Before.Find(sampleFiles(), c.target)
		if ok != c.ok {
			t.Fatalf("Before.Find(%v) ok = %v, want %v", c.target, ok, c.ok)
		}
		if ok && got.URI != c.want {
			t.Errorf("Before.Find(%v) = %v, want %v", c.target, got.URI, c.want)
		}
	}
}

func TestAfterStrategy(t *testing.T) {
	cases := []struct {
		target time.Time
		want   string
		ok     bool
	}{
		{time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), "archive_2.wacz", true},
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "", false},
		{time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), "archive_2.wacz", true},
	}
	for _, c := range cases {
		got, ok := After.Find(sampleFiles(), c.target)
		if ok != c.ok {
			t.Fatalf("After.Find(%v) ok = %v, want %v", c.target, ok, c.ok)
		}
		if ok && got.URI != c.want {
			t.Errorf("After.Find(%v) = %v, want %v", c.target, got.URI, c.want)
		}
	}
}

func TestBeforeAfterMonotonicity(t *testing.T) {
	files := sampleFiles()
	t1 := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	b1, ok1 := Before.Find(files, t1)
	b2, ok2 := Before.Find(files, t2)
	if !ok1 || !ok2 {
		t.Fatal("expected both Before lookups to hit")
	}
	if b2.LastModified.Before(b1.LastModified) {
		t.Errorf("Before result regressed as target advanced: t1=%v t2=%v", b1.LastModified, b2.LastModified)
	}

	a1, ok1 := After.Find(files, t1)
	a2, ok2 := After.Find(files, t2)
	if !ok1 || !ok2 {
		t.Fatal("expected both After lookups to hit")
	}
	if a2.LastModified.Before(a1.LastModified) {
		t.Errorf("After result regressed as target advanced: t1=%v t2=%v", a1.LastModified, a2.LastModified)
	}
}

func TestEmptyFileList(t *testing.T) {
	if _, ok := Before.Find(nil, time.Now()); ok {
		t.Error("expected no match against an empty file list")
	}
	if _, ok := After.Find(nil, time.Now()); ok {
		t.Error("expected no match against an empty file list")
	}
}

func TestRegistryDefaults(t *testing.T) {
	reg := NewRegistry()

	if _, err := reg.Get("before"); err != nil {
		t.Errorf("Get(before): %v", err)
	}
	if _, err := reg.Get("after"); err != nil {
		t.Errorf("Get(after): %v", err)
	}
	if _, err := reg.Get("nonexistent"); err != ErrUnknownStrategy {
		t.Errorf("Get(nonexistent) err = %v, want ErrUnknownStrategy", err)
	}
}

func TestRegistryRegisterCustom(t *testing.T) {
	reg := NewRegistry()
	custom := StrategyFunc(func(files []FileInfo, target time.Time) (FileInfo, bool) {
		return FileInfo{URI: "always-this-one"}, true
	})
	reg.Register("fixed", custom)

	got, err := reg.Get("fixed")
	if err != nil {
		t.Fatalf("Get(fixed): %v", err)
	}
	rec, ok := got.Find(nil, time.Now())
	if !ok || rec.URI != "always-this-one" {
		t.Errorf("custom strategy returned %+v, %v", rec, ok)
	}
}
