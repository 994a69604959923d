package main

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// capturedExchange holds the raw bytes a single HTTP round trip put on the
// wire, adapted from fairuse-warc's transport.go connWrapper: dialing is
// wrapped so the *one* connection each request opens can be tapped for its
// exact request/response byte streams, which then go straight into a WARC
// response/request record pair without re-serializing anything net/http
// already serialized.
type capturedExchange struct {
	req  bytes.Buffer
	resp bytes.Buffer
}

type tappedConn struct {
	net.Conn
	ex *capturedExchange
}

func (c *tappedConn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)
	c.ex.resp.Write(b[:n])
	return n, err
}

func (c *tappedConn) Write(b []byte) (int, error) {
	c.ex.req.Write(b)
	return c.Conn.Write(b)
}

// newCapturingClient returns an *http.Client whose single dialed connection
// is tapped into ex. Compression and HTTP/2 are disabled so the captured
// bytes are the literal, replayable HTTP/1.1 exchange — a proxy would
// otherwise alter the byte stream a WARC record is supposed to preserve.
func newCapturingClient(ex *capturedExchange) *http.Client {
	type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.ForceAttemptHTTP2 = false
	base.DisableCompression = true

	tap := func(df dialFunc) dialFunc {
		return func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := df(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &tappedConn{Conn: conn, ex: ex}, nil
		}
	}

	base.DialContext = tap(base.DialContext)
	base.DialTLSContext = tap(func(ctx context.Context, network, addr string) (net.Conn, error) {
		tlsConfig := base.TLSClientConfig.Clone()
		if tlsConfig == nil {
			tlsConfig = &tls.Config{}
		}
		host, _, splitErr := net.SplitHostPort(addr)
		if splitErr == nil {
			tlsConfig.ServerName = host
		}
		conn, err := tls.Dial(network, addr, tlsConfig)
		if err != nil {
			return nil, err
		}
		return conn, conn.Handshake()
	})

	return &http.Client{
		Transport: base,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("warcrecord: stopped after 10 redirects")
			}
			return nil
		},
		Timeout: 30 * time.Second,
	}
}

// fetch performs a single GET and returns the raw request/response byte
// streams tappedConn captured, alongside the decoded *http.Response for its
// status line and headers.
func fetch(ctx context.Context, targetURL string) (*http.Response, *capturedExchange, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("warcrecord: build request: %w", err)
	}
	req.Header.Set("User-Agent", "warcrecord/0.1 (+webarchive demo)")

	ex := &capturedExchange{}
	client := newCapturingClient(ex)

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("warcrecord: fetch %s: %w", targetURL, err)
	}
	defer resp.Body.Close()

	// Drain the body so the tapped connection observes the full response
	// before the record is assembled.
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return nil, nil, fmt.Errorf("warcrecord: drain response body: %w", err)
	}

	return resp, ex, nil
}
