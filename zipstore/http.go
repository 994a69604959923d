package zipstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPRangeFetcher fetches byte ranges from a plain HTTP(S) URL using
// standard Range requests — the generic transport half of the ranged
// backend, usable with any object store that serves Range/HEAD over HTTP
// without needing the S3 API.
type HTTPRangeFetcher struct {
	Client *http.Client
	URL    string
}

// NewHTTPRangeFetcher returns a fetcher against url using client. A nil
// client defaults to http.DefaultClient.
func NewHTTPRangeFetcher(client *http.Client, url string) *HTTPRangeFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRangeFetcher{Client: client, URL: url}
}

// Size issues a HEAD request and returns Content-Length.
func (f *HTTPRangeFetcher) Size(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, f.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("zipstore: build HEAD request: %w", err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("zipstore: HEAD %s: %w", f.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("zipstore: HEAD %s: status %s", f.URL, resp.Status)
	}
	if resp.ContentLength < 0 {
		return 0, fmt.Errorf("zipstore: HEAD %s: missing Content-Length", f.URL)
	}
	return resp.ContentLength, nil
}

// Fetch issues a GET with the given Range header value and returns the
// response body.
func (f *HTTPRangeFetcher) Fetch(ctx context.Context, rangeHeader string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("zipstore: build GET request: %w", err)
	}
	req.Header.Set("Range", rangeHeader)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("zipstore: GET %s %s: %w", f.URL, rangeHeader, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("zipstore: GET %s %s: status %s", f.URL, rangeHeader, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("zipstore: read range response body: %w", err)
	}
	return body, nil
}

var _ RangeFetcher = (*HTTPRangeFetcher)(nil)
