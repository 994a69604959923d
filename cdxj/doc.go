// Package cdxj parses and emits CDXJ index lines — the sorted, line-oriented
// index format that maps a SURT-keyed URL and timestamp to the byte-exact
// WARC record that answers it. It generalizes the legacy space-delimited
// CDX9/CDX11 field catalogue (see zenless-lab/gwarc's cdx package) down to
// this format's single-JSON-object payload.
package cdxj
