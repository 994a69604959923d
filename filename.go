package warc

import (
	"fmt"
	"time"
)

// FileName builds a WARC filename following the
// Prefix-Timestamp-Serial-Crawlhost convention recommended by the WARC 1.1
// specification: <prefix>-<YYYYMMDDhhmmss>-<serial5>-<host>.warc.gz.
//
// t is converted to UTC. host is truncated to its first dot-separated
// label.
func FileName(prefix string, t time.Time, serial int, host string) string {
	label := firstLabel(host)
	return fmt.Sprintf("%s-%s-%05d-%s.warc.gz", prefix, t.UTC().Format("20060102150405"), serial, label)
}

func firstLabel(host string) string {
	for i, r := range host {
		if r == '.' {
			return host[:i]
		}
	}
	return host
}
