package warc

import (
	"net/textproto"
	"strings"
	"time"
)

// Type identifies the kind of content a Record carries.
type Type string

const (
	TypeWarcinfo     Type = "warcinfo"
	TypeResponse     Type = "response"
	TypeRequest      Type = "request"
	TypeMetadata     Type = "metadata"
	TypeResource     Type = "resource"
	TypeRevisit      Type = "revisit"
	TypeConversion   Type = "conversion"
	TypeContinuation Type = "continuation"
)

// Version is the WARC format version a record was read as, or will be
// written as.
type Version string

const (
	Version1_0 Version = "WARC/1.0"
	Version1_1 Version = "WARC/1.1"
)

// Header is a case-insensitive, order-preserving set of WARC record header
// fields. Lookups fold case the way textproto.MIMEHeader does; iteration
// order (Keys) follows insertion order so a written record reproduces the
// header order it was given.
type Header struct {
	values map[string]string
	keys   []string
}

// NewHeader returns an empty Header.
func NewHeader() *Header {
	return &Header{values: make(map[string]string)}
}

func canonKey(key string) string {
	return textproto.CanonicalMIMEHeaderKey(key)
}

// Get returns the value for key, or "" if absent.
func (h *Header) Get(key string) string {
	if h == nil {
		return ""
	}
	return h.values[canonKey(key)]
}

// Set assigns key to value, replacing any prior value but preserving the
// key's original position if it was already present.
func (h *Header) Set(key, value string) {
	k := canonKey(key)
	if _, ok := h.values[k]; !ok {
		h.keys = append(h.keys, k)
	}
	h.values[k] = value
}

// Del removes key from the header.
func (h *Header) Del(key string) {
	k := canonKey(key)
	if _, ok := h.values[k]; !ok {
		return
	}
	delete(h.values, k)
	for i, existing := range h.keys {
		if existing == k {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
}

// Keys returns header field names in insertion order.
func (h *Header) Keys() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// Record is a single WARC record: headers plus an optional content block.
type Record struct {
	Version Version
	Header  *Header
	Content []byte
}

// NewRecord returns a Record with an empty header, defaulting to WARC/1.1.
func NewRecord() *Record {
	return &Record{Version: Version1_1, Header: NewHeader()}
}

// Type returns the record's WARC-Type header as a Type.
func (r *Record) Type() Type {
	return Type(r.Header.Get("WARC-Type"))
}

// RecordID returns the record's WARC-Record-ID header, stripped of the
// surrounding "<...>" wrapper if present (the same form ConcurrentTo
// returns).
func (r *Record) RecordID() string {
	return strings.Trim(r.Header.Get("WARC-Record-ID"), "<>")
}

// TargetURI returns the record's WARC-Target-URI header.
func (r *Record) TargetURI() string {
	return r.Header.Get("WARC-Target-URI")
}

// Date parses the record's WARC-Date header as RFC3339. A zero time is
// returned if the header is absent or malformed.
func (r *Record) Date() time.Time {
	v := r.Header.Get("WARC-Date")
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ConcurrentTo returns the record's WARC-Concurrent-To header, stripped of
// the surrounding "<...>" wrapper if present.
func (r *Record) ConcurrentTo() string {
	return strings.Trim(r.Header.Get("WARC-Concurrent-To"), "<>")
}

// ContentType returns the record's Content-Type header.
func (r *Record) ContentType() string {
	return r.Header.Get("Content-Type")
}
