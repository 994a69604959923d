package cdxj

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// lineRE matches "SURT SP DATETIME SP JSON_OBJECT", mirroring the
// scrapy_webarchive CDXREC pattern with host/path/query/datetime
// sub-captures so Parse never re-derives them by hand.
var lineRE = regexp.MustCompile(
	`^(?P<surt>(?P<host>[^)\s]+)\)(?P<path>[^?\s]+)?(\?(?P<query>\S+))?)` +
		`\s(?P<datetime>(?P<year>\d{4})(?P<month>\d{2})(?P<day>\d{2})(?P<hour>\d{2})(?P<minute>\d{2})(?P<second>\d{2})(?:\d{3})?)` +
		`\s(?P<data>\{.*\})$`,
)

// Record is one parsed CDXJ index entry.
type Record struct {
	SURT     string
	Host     string
	Path     string
	Query    string
	Datetime string
	Year     string
	Month    string
	Day      string
	Hour     string
	Minute   string
	Second   string
	Data     map[string]any

	// SourceID identifies which WACZ a Multi reader's lookup/fetch should
	// dispatch back to. It is an arena index into the owning Multi
	// reader's backend slice rather than a pointer, so records stay
	// trivially copyable and comparable without a reference cycle back to
	// their reader.
	SourceID int
}

// Parse decodes a single CDXJ line. It rejects anything that does not match
// the SURT SP DATETIME SP JSON_OBJECT grammar, including lines missing the
// datetime field entirely.
func Parse(line string) (Record, error) {
	line = strings.TrimSpace(line)
	m := lineRE.FindStringSubmatch(line)
	if m == nil {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidLine, line)
	}

	groups := make(map[string]string, len(m))
	for i, name := range lineRE.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		groups[name] = m[i]
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(groups["data"]), &data); err != nil {
		return Record{}, fmt.Errorf("%w: %q: %v", ErrInvalidLine, line, err)
	}

	return Record{
		SURT:     groups["surt"],
		Host:     groups["host"],
		Path:     groups["path"],
		Query:    groups["query"],
		Datetime: groups["datetime"],
		Year:     groups["year"],
		Month:    groups["month"],
		Day:      groups["day"],
		Hour:     groups["hour"],
		Minute:   groups["minute"],
		Second:   groups["second"],
		Data:     data,
	}, nil
}

// Line re-serializes r as a CDXJ line. Emit(Parse(L)) reproduces L modulo
// JSON key ordering and whitespace, since Go's encoding/json sorts map
// keys rather than preserving input order.
func (r Record) Line() (string, error) {
	body, err := json.Marshal(r.Data)
	if err != nil {
		return "", fmt.Errorf("cdxj: marshal data: %w", err)
	}
	return fmt.Sprintf("%s %s %s", r.SURT, r.Datetime, body), nil
}

// URL returns the original URL the record's payload carries, or "" if the
// payload omits it.
func (r Record) URL() string {
	if v, ok := r.Data["url"]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Filename returns the WARC member this record's bytes live in.
func (r Record) Filename() string {
	return stringField(r.Data, "filename")
}

// Offset returns the byte offset of the record's gzip member within its
// WARC, or -1 if absent/unparseable.
func (r Record) Offset() int64 {
	return int64Field(r.Data, "offset")
}

// Length returns the byte length of the record's gzip member, or -1 if
// absent/unparseable.
func (r Record) Length() int64 {
	return int64Field(r.Data, "length")
}

func stringField(data map[string]any, key string) string {
	if v, ok := data[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func int64Field(data map[string]any, key string) int64 {
	v, ok := data[key]
	if !ok {
		return -1
	}
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return -1
		}
		return i
	default:
		return -1
	}
}
