// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarehq/flare-go/ext"
)

// stubSender is an envelopeSender the test controls: it records every body
// it was handed and returns a scripted response.
type stubSender struct {
	mu              sync.Mutex
	bodies          [][]byte
	status          int
	rateLimitHeader string
	retryAfter      string
	err             error
}

func (s *stubSender) send(_ context.Context, body []byte) (int, string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies = append(s.bodies, body)
	if s.err != nil {
		return 0, "", "", s.err
	}
	return s.status, s.rateLimitHeader, s.retryAfter, nil
}

func (s *stubSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bodies)
}

func TestQueueWorkerTransport_DeliversAndFlushes(t *testing.T) {
	sender := &stubSender{status: 200}
	tr := newQueueWorkerTransport(sender, newOutcomes())
	defer tr.Shutdown(time.Second)

	env := &Envelope{Items: []EnvelopeItem{{Type: ext.CategoryEvent, Payload: []byte("{}")}}}
	tr.SendEnvelope(env)

	require.True(t, tr.Flush(time.Second))
	assert.Equal(t, 1, sender.count())
}

func TestQueueWorkerTransport_FullQueueDropsAndTallies(t *testing.T) {
	out := newOutcomes()
	sender := &stubSender{status: 200}
	tr := newQueueWorkerTransport(sender, out)
	defer tr.Shutdown(time.Second)

	// Overfill beyond the bounded capacity; excess must drop rather than
	// block the caller (invariant 8: transport never blocks capture).
	for i := 0; i < transportQueueCapacity+16; i++ {
		env := &Envelope{Items: []EnvelopeItem{{Type: ext.CategoryEvent, Payload: []byte("{}")}}}
		tr.SendEnvelope(env)
	}

	require.True(t, tr.Flush(time.Second))
	assert.Greater(t, out.Count(DiscardReasonQueueOverflow, string(ext.CategoryEvent)), 0)
}

func TestQueueWorkerTransport_RateLimitResponseUpdatesLimiter(t *testing.T) {
	sender := &stubSender{status: 200, rateLimitHeader: "60:transaction:key"}
	tr := newQueueWorkerTransport(sender, newOutcomes())
	defer tr.Shutdown(time.Second)

	env := &Envelope{Items: []EnvelopeItem{{Type: ext.CategoryTransaction, Payload: []byte("{}")}}}
	tr.SendEnvelope(env)
	require.True(t, tr.Flush(time.Second))

	_, limited := tr.limiter.limitedUntil(ext.CategoryTransaction, time.Now())
	assert.True(t, limited, "a 429-style rate-limit directive updates the shared limiter state")
}

func TestQueueWorkerTransport_NetworkErrorTalliesDiscard(t *testing.T) {
	out := newOutcomes()
	sender := &stubSender{err: assert.AnError}
	tr := newQueueWorkerTransport(sender, out)
	defer tr.Shutdown(time.Second)

	env := &Envelope{Items: []EnvelopeItem{{Type: ext.CategoryEvent, Payload: []byte("{}")}}}
	tr.SendEnvelope(env)
	require.True(t, tr.Flush(time.Second))

	assert.Equal(t, 1, out.Count(DiscardReasonNetworkError, string(ext.CategoryEvent)))
}

func TestQueueWorkerTransport_ShutdownIsIdempotent(t *testing.T) {
	tr := newQueueWorkerTransport(&stubSender{status: 200}, newOutcomes())
	assert.True(t, tr.Shutdown(time.Second))
	assert.True(t, tr.Shutdown(time.Second))
}
