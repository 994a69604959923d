// Package crawl wires the rest of this module into a crawl: Exporter
// captures a live crawl's request/response pairs into a WACZ package,
// and Reader replays archived responses back to a crawler — the two
// roles scrapy-webarchive's WaczExporter extension and
// WaczMiddleware/WaczCrawlMiddleware play, modeled here against a small
// host interface instead of a specific crawler framework.
package crawl
