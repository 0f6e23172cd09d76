// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flaretest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/felixge/httpsnoop"

	"github.com/flarehq/flare-go"
)

// RequestMetrics is one recorded ingestion request: the response status
// served and the framed envelope decoded from the body, captured via
// httpsnoop so the recording wrapper never has to touch the body itself.
type RequestMetrics struct {
	Status   int
	Envelope *flare.Envelope
}

// Server is a fake ingestion endpoint for exercising an HTTPTransport
// end-to-end, including real header parsing (auth, rate limits) that the
// in-process Transport bypasses entirely.
type Server struct {
	*httptest.Server

	mu sync.Mutex

	// NextStatus, if non-zero, is the status served to the next request;
	// it resets to 0 (200) afterwards. Set NextRateLimitHeader /
	// NextRetryAfter to control rate-limit response headers.
	NextStatus          int
	NextRateLimitHeader string
	NextRetryAfter      string

	requests []RequestMetrics
}

// NewServer starts a fake ingestion endpoint.
func NewServer() *Server {
	s := &Server{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		env, _ := flare.ParseEnvelope(bytes.NewReader(body))

		metrics := httpsnoop.CaptureMetricsFn(w, func(ww http.ResponseWriter) {
			s.mu.Lock()
			status := s.NextStatus
			rl := s.NextRateLimitHeader
			retry := s.NextRetryAfter
			s.NextStatus = 0
			s.NextRateLimitHeader = ""
			s.NextRetryAfter = ""
			s.mu.Unlock()

			if rl != "" {
				ww.Header().Set("X-Flare-Rate-Limits", rl)
			}
			if retry != "" {
				ww.Header().Set("Retry-After", retry)
			}
			if status == 0 {
				status = http.StatusOK
			}
			ww.WriteHeader(status)
		})

		s.mu.Lock()
		s.requests = append(s.requests, RequestMetrics{Status: metrics.Code, Envelope: env})
		s.mu.Unlock()
	}))
	return s
}

// Requests returns a snapshot of every request observed so far.
func (s *Server) Requests() []RequestMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RequestMetrics, len(s.requests))
	copy(out, s.requests)
	return out
}
