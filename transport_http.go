// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/flarehq/flare-go/internal/log"
)

// HTTPTransport is the reference Transport backed by net/http. Submission timing is logged to the internal
// debug sink via a thin RoundTripper wrapper.
type HTTPTransport struct {
	*queueWorkerTransport
}

type httpEnvelopeSender struct {
	client *http.Client
	dsn    *DSN
}

func (s *httpEnvelopeSender) send(ctx context.Context, body []byte) (int, string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.dsn.EnvelopeURL(), bytes.NewReader(body))
	if err != nil {
		return 0, "", "", err
	}
	req.Header.Set("Content-Type", "application/x-flare-envelope")
	req.Header.Set("X-Flare-Auth", s.dsn.AuthHeader(time.Now().Unix()))

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, "", "", err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, resp.Header.Get("X-Flare-Rate-Limits"), resp.Header.Get("Retry-After"), nil
}

// timedRoundTripper logs each request's status and duration to the
// internal debug sink by wrapping the transport's RoundTripper instead of
// forking http.Transport.
type timedRoundTripper struct {
	next http.RoundTripper
}

func (t *timedRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	dur := time.Since(start)
	if err != nil {
		log.Debug("envelope POST %s failed after %s: %v", req.URL, dur, err)
		return nil, err
	}
	log.Debug("envelope POST %s -> %d (%s)", req.URL, resp.StatusCode, dur)
	return resp, nil
}

// NewHTTPTransport builds an HTTPTransport for the given DSN. If client is
// nil a default *http.Client is used.
func NewHTTPTransport(dsn *DSN, client *http.Client, out *outcomes) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	instrumented := &http.Client{
		Transport: &timedRoundTripper{next: transportOrDefault(client.Transport)},
		Timeout:   client.Timeout,
	}
	sender := &httpEnvelopeSender{client: instrumented, dsn: dsn}
	return &HTTPTransport{queueWorkerTransport: newQueueWorkerTransport(sender, out)}
}

// defaultProxyTransport is the transport used when the caller supplies no
// *http.Client of its own. Proxy is explicit rather than inherited from
// http.DefaultTransport so HTTP_PROXY/HTTPS_PROXY/NO_PROXY support is a
// documented property of this transport, not an implicit stdlib default.
func defaultProxyTransport() http.RoundTripper {
	return &http.Transport{Proxy: http.ProxyFromEnvironment}
}

func transportOrDefault(rt http.RoundTripper) http.RoundTripper {
	if rt != nil {
		return rt
	}
	return defaultProxyTransport()
}
