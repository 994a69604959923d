package wacz

import (
	"context"
	"fmt"

	webarchive "github.com/fairuse/webarchive"
	"github.com/fairuse/webarchive/cdxj"
)

// MultiReader holds an ordered list of package readers and presents them as
// one combined index: Lookup probes in order (first hit wins), and Fetch
// dispatches back to whichever reader produced the record.
//
// Rather than each cdxj.Record holding a pointer back to its owning
// *Reader (which would make records non-trivially-copyable and tie their
// lifetime to the reader), every record gets an integer SourceID — an
// arena index into sources — that Fetch resolves at dispatch time.
type MultiReader struct {
	sources []*Reader
	byURL   map[string]cdxj.Record
	all     []cdxj.Record
}

// NewMultiReader combines sources into one lookup surface. Unlike a single
// Reader's Index (which prefers the most-recently-appended record for a
// URL, i.e. within one archive's crawl history), a lookup across multiple
// packages prefers the first SOURCE that has the URL at all, matching
// MultiWaczFile's probe-in-order semantics.
func NewMultiReader(sources []*Reader) *MultiReader {
	m := &MultiReader{sources: sources, byURL: make(map[string]cdxj.Record)}

	for i, src := range sources {
		for _, rec := range src.IterIndex() {
			rec.SourceID = i
			m.all = append(m.all, rec)
			// Within the first source that has the URL, the last record
			// wins, as in Reader.Lookup; later sources never override it.
			if prev, seen := m.byURL[rec.URL()]; !seen || prev.SourceID == i {
				m.byURL[rec.URL()] = rec
			}
		}
	}
	return m
}

// Lookup probes sources in order and returns the first hit.
func (m *MultiReader) Lookup(url string) (cdxj.Record, bool) {
	rec, ok := m.byURL[url]
	return rec, ok
}

// Fetch dispatches to the source reader that produced rec.
func (m *MultiReader) Fetch(ctx context.Context, rec cdxj.Record) (*webarchive.Record, error) {
	if rec.SourceID < 0 || rec.SourceID >= len(m.sources) {
		return nil, fmt.Errorf("wacz: record source id %d out of range", rec.SourceID)
	}
	return m.sources[rec.SourceID].Fetch(ctx, rec)
}

// FetchByURL is Lookup followed by Fetch.
func (m *MultiReader) FetchByURL(ctx context.Context, url string) (*webarchive.Record, cdxj.Record, bool, error) {
	rec, ok := m.Lookup(url)
	if !ok {
		return nil, cdxj.Record{}, false, nil
	}
	warcRec, err := m.Fetch(ctx, rec)
	if err != nil {
		return nil, rec, true, err
	}
	return warcRec, rec, true, nil
}

// IterIndex concatenates every source's index records, in source order.
func (m *MultiReader) IterIndex() []cdxj.Record {
	out := make([]cdxj.Record, len(m.all))
	copy(out, m.all)
	return out
}
