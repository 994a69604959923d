// Package zipstore serves byte ranges out of a ZIP container without
// requiring the whole archive in memory or on disk. Local opens the
// container with the standard library's archive/zip; Ranged fetches only
// the End-of-Central-Directory, ZIP64 locator, and central directory it
// needs to resolve a member to an absolute byte range, then two more
// ranged requests per read (the member's local file header, then the data
// slice) — the algorithm scrapy_webarchive's
// wacz/zip_utils.py and wacz/storages.py implement against S3 and mirrored
// here against a pluggable RangeFetcher.
package zipstore
