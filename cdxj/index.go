package cdxj

// Index is an in-memory URL→records map built from a set of parsed CDXJ
// lines. Multiple records may share a URL (successive crawls of the same
// page); Lookup returns the most recent.
type Index struct {
	byURL map[string][]Record
	all   []Record
}

// BuildIndex groups records by their payload's "url" field. Record order
// within a group, and within All, follows input order — callers that want
// surt+datetime order should sort records before calling BuildIndex.
func BuildIndex(records []Record) *Index {
	idx := &Index{
		byURL: make(map[string][]Record, len(records)),
		all:   records,
	}
	for _, r := range records {
		u := r.URL()
		idx.byURL[u] = append(idx.byURL[u], r)
	}
	return idx
}

// Lookup returns the most recently appended record for url, and whether one
// was found at all.
func (idx *Index) Lookup(url string) (Record, bool) {
	matches := idx.byURL[url]
	if len(matches) == 0 {
		return Record{}, false
	}
	return matches[len(matches)-1], true
}

// History returns every record seen for url, oldest first.
func (idx *Index) History(url string) []Record {
	return idx.byURL[url]
}

// All returns every record the index was built from, in input order. It
// returns a fresh slice each call rather than a long-lived cursor, so
// concurrent iteration is always restartable from the start.
func (idx *Index) All() []Record {
	out := make([]Record, len(idx.all))
	copy(out, idx.all)
	return out
}

// Len returns the number of records in the index.
func (idx *Index) Len() int {
	return len(idx.all)
}
