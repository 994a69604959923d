package transform

import (
	"fmt"
	"net/http"

	"github.com/fairuse/webarchive/cdxj"
)

// RequestFromCDXJ builds the http.Request a crawl-from-archive replay
// would issue for rec, grounded in WarcRecordTransformer.request_for_record.
// The method defaults to GET, matching the original's record.get("method",
// "GET") — CDXJ data blocks in the wild rarely carry a "method" field.
func RequestFromCDXJ(rec cdxj.Record) (*http.Request, error) {
	method := "GET"
	if m, ok := rec.Data["method"].(string); ok && m != "" {
		method = m
	}

	req, err := http.NewRequest(method, rec.URL(), nil)
	if err != nil {
		return nil, fmt.Errorf("transform: build request for %s: %w", rec.URL(), err)
	}
	return req, nil
}
