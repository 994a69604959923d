package cdxj

import (
	"fmt"
	"net/url"
	"strings"
)

// ToSURT canonicalizes rawURL into Sort-friendly URI Reordering form: the
// host's labels reversed and comma-joined, a closing ")", then path and
// query exactly as given (no further percent-decoding or normalization —
// callers that need canonicalization do it before calling ToSURT).
func ToSURT(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("cdxj: parse url %q: %w", rawURL, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("cdxj: url %q has no host", rawURL)
	}

	labels := strings.Split(u.Hostname(), ".")
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
	surt := strings.Join(labels, ",") + ")"

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	surt += path

	if u.RawQuery != "" {
		surt += "?" + u.RawQuery
	}
	return surt, nil
}
