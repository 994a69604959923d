package zipstore

import (
	"context"
	"errors"
	"testing"
)

type flakyFetcher struct {
	failuresLeft int
	data         []byte
}

func (f *flakyFetcher) Size(ctx context.Context) (int64, error) {
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return 0, errors.New("transient size error")
	}
	return int64(len(f.data)), nil
}

func (f *flakyFetcher) Fetch(ctx context.Context, rangeHeader string) ([]byte, error) {
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return nil, errors.New("transient fetch error")
	}
	return f.data, nil
}

func TestRetryingFetcherSucceedsAfterOneFailure(t *testing.T) {
	inner := &flakyFetcher{failuresLeft: 1, data: []byte("hello")}
	f := NewRetryingFetcher(inner)

	data, err := f.Fetch(context.Background(), "bytes=0-4")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("Fetch = %q", data)
	}
}

func TestRetryingFetcherPropagatesSecondFailure(t *testing.T) {
	inner := &flakyFetcher{failuresLeft: 2, data: []byte("hello")}
	f := NewRetryingFetcher(inner)

	_, err := f.Fetch(context.Background(), "bytes=0-4")
	if err == nil {
		t.Fatal("expected error to propagate after second failure")
	}
}
