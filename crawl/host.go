package crawl

import (
	"regexp"
	"time"
)

// Host is the small contract crawl.Exporter and crawl.Reader need from
// whatever crawler embeds them — requests, responses, settings, and a
// counter sink — standing in for the crawler itself, which is out of
// scope here the way Scrapy's Crawler/Spider objects are out of scope for
// scrapy-webarchive's extensions and middlewares.
type Host interface {
	// CollectionName identifies the crawl job, used as the archive's
	// "isPartOf" and as a component of the generated WARC filename.
	CollectionName() string

	// AllowedDomains restricts crawl-from-archive start requests to
	// these hostnames. A nil/empty slice means no restriction.
	AllowedDomains() []string

	// ArchiveRegexp, if non-nil, further restricts crawl-from-archive
	// start requests to URLs it matches.
	ArchiveRegexp() *regexp.Regexp

	Stats
}

// Stats is the counter sink crawl increments on skip/hit/miss events,
// mirroring StatsCollector.inc_value in the original.
type Stats interface {
	Inc(counter string)
}

// NopStats discards every increment; useful for callers that don't need
// crawl statistics.
type NopStats struct{}

// Inc does nothing.
func (NopStats) Inc(counter string) {}

// clock lets tests substitute a fixed time instead of time.Now.
type clock func() time.Time

var defaultClock clock = time.Now
