// Package selector picks which archive file a replay should read from,
// when more than one WACZ/WARC file is available for a collection.
//
// A FileResolver lists the candidate files (local directory or S3
// bucket); a Strategy then picks one of them relative to a target time.
// Unlike the Python original's StrategyRegistry, which registers
// strategies into a package-level global via an import-time decorator,
// Registry here is a plain value the caller constructs and owns — there
// is no global state and no import-order dependency.
package selector
