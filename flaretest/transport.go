// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

// Package flaretest provides an in-process capturing Transport and a fake
// HTTP ingestion server, for exercising a flare Client without a network.
// It is an importable test double, not just an internal test helper.
package flaretest

import (
	"sync"
	"time"

	"github.com/flarehq/flare-go"
)

// Transport is an in-process flare.Transport that appends every envelope
// handed to it to an internal, mutex-guarded slice. SendEnvelope/Flush/
// Shutdown never block.
type Transport struct {
	mu        sync.Mutex
	envelopes []*flare.Envelope
}

var _ flare.Transport = (*Transport)(nil)

// NewTransport returns an empty capturing transport.
func NewTransport() *Transport {
	return &Transport{}
}

// SendEnvelope records e.
func (t *Transport) SendEnvelope(e *flare.Envelope) {
	if e == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.envelopes = append(t.envelopes, e)
}

// Flush always reports success: there is nothing asynchronous to drain.
func (t *Transport) Flush(time.Duration) bool { return true }

// Shutdown always reports success.
func (t *Transport) Shutdown(time.Duration) bool { return true }

// Envelopes returns a snapshot of everything captured so far.
func (t *Transport) Envelopes() []*flare.Envelope {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*flare.Envelope, len(t.envelopes))
	copy(out, t.envelopes)
	return out
}

// Reset discards captured envelopes.
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.envelopes = nil
}

// Count returns the number of captured envelopes.
func (t *Transport) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.envelopes)
}
