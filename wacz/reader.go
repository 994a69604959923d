package wacz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	webarchive "github.com/fairuse/webarchive"
	"github.com/fairuse/webarchive/cdxj"
	"github.com/fairuse/webarchive/zipstore"
)

// maxInvalidLineRate is the fraction of CDXJ lines allowed to fail
// parsing before Open aborts rather than building a partial index.
const maxInvalidLineRate = 0.001

// Reader exposes URL lookup and record retrieval over a single WACZ
// package, backed by any zipstore.Backend (local or ranged-remote).
type Reader struct {
	backend zipstore.Backend
	index   *cdxj.Index
}

// Open resolves the package's index member (trying index.cdxj,
// index.cdxj.gz, index.cdx, index.cdx.gz in that order) and parses it into
// an in-memory index.
func Open(ctx context.Context, backend zipstore.Backend) (*Reader, error) {
	var records []cdxj.Record
	var found bool

	for _, candidate := range indexCandidates {
		raw, err := backend.ReadAll(ctx, candidate)
		if err != nil {
			continue
		}
		found = true

		// backend.ReadAll already transparently gunzips a ".gz"-suffixed
		// member, so the scanner is always handed plain text here
		// regardless of which candidate matched.
		scanner, err := cdxj.NewLineScanner(bytes.NewReader(raw), "index.cdxj")
		if err != nil {
			return nil, fmt.Errorf("wacz: open index %s: %w", candidate, err)
		}
		for scanner.Scan() {
			records = append(records, scanner.Record())
		}
		scanErr := scanner.Err()
		total, invalid := scanner.Total(), scanner.Invalid()
		scanner.Close()
		if scanErr != nil {
			return nil, fmt.Errorf("wacz: parse index %s: %w", candidate, scanErr)
		}
		if invalid > 0 {
			logrus.WithFields(logrus.Fields{
				"index":   candidate,
				"invalid": invalid,
				"total":   total,
			}).Warn("wacz: skipped invalid cdxj lines")
		}
		if total > 0 && float64(invalid)/float64(total) > maxInvalidLineRate {
			return nil, fmt.Errorf("%w: %d/%d lines in %s failed to parse", cdxj.ErrInvalidLine, invalid, total, candidate)
		}
		break
	}

	if !found {
		return nil, ErrNoIndex
	}

	return &Reader{backend: backend, index: cdxj.BuildIndex(records)}, nil
}

// Lookup returns the most recent CDXJ record for url.
func (r *Reader) Lookup(url string) (cdxj.Record, bool) {
	return r.index.Lookup(url)
}

// Fetch resolves rec's filename/offset/length against the package's
// archive/ directory and decodes exactly one WARC record from it.
func (r *Reader) Fetch(ctx context.Context, rec cdxj.Record) (*webarchive.Record, error) {
	filename := rec.Filename()
	if filename == "" {
		return nil, fmt.Errorf("%w: record has no filename", ErrRecordNotFound)
	}

	part, err := r.backend.ReadPart(ctx, archiveDir+filename, rec.Offset(), rec.Length())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordNotFound, err)
	}

	return webarchive.ReadSingleRecord(part)
}

// FetchByURL is Lookup followed by Fetch, returning a nil record, an empty
// cdxj.Record, false and a nil error on a miss rather than an error — a miss is the normal replay outcome, not a
// failure.
func (r *Reader) FetchByURL(ctx context.Context, url string) (*webarchive.Record, cdxj.Record, bool, error) {
	rec, ok := r.Lookup(url)
	if !ok {
		return nil, cdxj.Record{}, false, nil
	}
	warcRec, err := r.Fetch(ctx, rec)
	if err != nil {
		return nil, rec, true, err
	}
	return warcRec, rec, true, nil
}

// IterIndex returns every CDXJ record in the package.
func (r *Reader) IterIndex() []cdxj.Record {
	return r.index.All()
}
