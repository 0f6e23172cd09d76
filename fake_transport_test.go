// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"sync"
	"time"
)

// fakeTransport is an in-process Transport stand-in for internal package
// tests that need to inspect what a client or worker handed to the wire
// without standing up an HTTP listener.
type fakeTransport struct {
	mu   sync.Mutex
	envs []*Envelope
}

func (f *fakeTransport) SendEnvelope(e *Envelope) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.envs = append(f.envs, e)
}

func (f *fakeTransport) Flush(time.Duration) bool    { return true }
func (f *fakeTransport) Shutdown(time.Duration) bool { return true }

func (f *fakeTransport) envelopes() []*Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Envelope, len(f.envs))
	copy(out, f.envs)
	return out
}
