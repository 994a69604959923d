package crawl

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/fairuse/webarchive/selector"
	"github.com/fairuse/webarchive/transform"
	"github.com/fairuse/webarchive/wacz"
	"github.com/fairuse/webarchive/zipstore"
)

// Reader replays archived responses back to a crawler, the role
// BaseWaczMiddleware/WaczMiddleware/WaczCrawlMiddleware play together in
// the original source: resolve the configured WACZ source(s), then
// answer each request either from the archive or with a synthesized
// miss.
type Reader struct {
	host Host

	mu     sync.Mutex
	multi  *wacz.MultiReader
	opened bool
}

// NewReader returns an unopened Reader bound to host.
func NewReader(host Host) *Reader {
	return &Reader{host: host}
}

// OpenFromConfig resolves cfg's configured source templates through the
// archive selector (ResolveBackends — CompileTemplate, Registry.Get and
// Strategy.Find against cfg.WaczLookupTarget/WaczLookupStrategy) and opens the result,
// the path a spider-open hook drives in the normal case. registry
// supplies the named lookup strategies; selector.NewRegistry's defaults
// ("before"/"after") are enough unless the host registers custom ones.
func (r *Reader) OpenFromConfig(ctx context.Context, cfg *Config, spiderName string, registry *selector.Registry) error {
	backends, err := ResolveBackends(ctx, cfg, spiderName, registry)
	if err != nil {
		return fmt.Errorf("crawl: resolve archive sources: %w", err)
	}
	return r.Open(ctx, backends)
}

// Open opens every backend in backends directly, for callers that have
// already resolved their own sources (tests, or a host bypassing the
// archive selector with explicit backends).
func (r *Reader) Open(ctx context.Context, backends []zipstore.Backend) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.opened {
		return ErrAlreadyOpen
	}

	readers := make([]*wacz.Reader, 0, len(backends))
	for i, b := range backends {
		rd, err := wacz.Open(ctx, b)
		if err != nil {
			return fmt.Errorf("crawl: open wacz backend %d: %w", i, err)
		}
		readers = append(readers, rd)
	}

	r.multi = wacz.NewMultiReader(readers)
	r.opened = true
	return nil
}

// OnRequest answers req from the archive: a hit returns the replayed
// response; a miss returns a synthesized 404, matching
// WaczMiddleware.process_request's fallback.
func (r *Reader) OnRequest(ctx context.Context, req *http.Request) (*http.Response, bool, error) {
	r.mu.Lock()
	multi := r.multi
	opened := r.opened
	r.mu.Unlock()
	if !opened {
		return nil, false, ErrNotOpen
	}

	if r.host.ArchiveRegexp() != nil && !r.host.ArchiveRegexp().MatchString(req.URL.String()) {
		r.host.Inc("webarchive/crawl_skip")
		r.host.Inc("webarchive/crawl_skip/disallowed")
		return nil, false, nil
	}
	if !r.hostAllowed(req.URL) {
		r.host.Inc("webarchive/crawl_skip")
		r.host.Inc("webarchive/crawl_skip/off_site")
		return nil, false, nil
	}

	warcRec, _, found, err := multi.FetchByURL(ctx, req.URL.String())
	if err != nil {
		return nil, false, fmt.Errorf("crawl: fetch %s: %w", req.URL, err)
	}
	if !found {
		r.host.Inc("webarchive/response_not_found")
		return synthesize404(req), true, nil
	}

	resp, err := transform.ResponseFromWARC(warcRec)
	if err != nil {
		r.host.Inc("webarchive/response_not_recognized")
		return nil, false, nil
	}

	r.host.Inc("webarchive/hit")
	return resp, true, nil
}

// StartRequests iterates the combined index and yields one *http.Request
// per recognized entry, for crawl-from-archive mode — the role
// WaczCrawlMiddleware.process_start_requests plays when crawl is enabled.
// Off-site and disallowed entries are skipped and counted exactly like
// OnRequest does, rather than silently dropped.
func (r *Reader) StartRequests(ctx context.Context) ([]*http.Request, error) {
	r.mu.Lock()
	multi := r.multi
	opened := r.opened
	r.mu.Unlock()
	if !opened {
		return nil, ErrNotOpen
	}

	var out []*http.Request
	for _, rec := range multi.IterIndex() {
		u, err := url.Parse(rec.URL())
		if err != nil {
			continue
		}
		if r.host.ArchiveRegexp() != nil && !r.host.ArchiveRegexp().MatchString(rec.URL()) {
			r.host.Inc("webarchive/crawl_skip")
			r.host.Inc("webarchive/crawl_skip/disallowed")
			continue
		}
		if !r.hostAllowed(u) {
			r.host.Inc("webarchive/crawl_skip")
			r.host.Inc("webarchive/crawl_skip/off_site")
			continue
		}

		req, err := transform.RequestFromCDXJ(rec)
		if err != nil {
			continue
		}
		r.host.Inc("webarchive/start_request_count")
		out = append(out, req)
	}
	return out, nil
}

func (r *Reader) hostAllowed(u *url.URL) bool {
	allowed := r.host.AllowedDomains()
	if len(allowed) == 0 {
		return true
	}
	for _, domain := range allowed {
		if strings.EqualFold(u.Hostname(), domain) {
			return true
		}
	}
	return false
}

func synthesize404(req *http.Request) *http.Response {
	return &http.Response{
		Status:     "404 Not Found",
		StatusCode: http.StatusNotFound,
		Proto:      "HTTP/1.1",
		Header:     make(http.Header),
		Body:       http.NoBody,
		Request:    req,
	}
}
