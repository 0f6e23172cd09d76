// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import "sync"

// DiscardReason is why an event, transaction, or log never made it onto
// the wire.
type DiscardReason string

const (
	DiscardReasonSampleRate       DiscardReason = "sample_rate"
	DiscardReasonBeforeSend       DiscardReason = "before_send"
	DiscardReasonEventProcessor   DiscardReason = "event_processor"
	DiscardReasonRateLimitBackoff DiscardReason = "ratelimit_backoff"
	DiscardReasonQueueOverflow    DiscardReason = "queue_overflow"
	DiscardReasonNetworkError     DiscardReason = "network_error"
)

// outcomes tallies discarded-outcome counts per (reason, category). It is
// read through Client.Outcomes and by tests; it never affects control
// flow.
type outcomes struct {
	mu     sync.Mutex
	counts map[string]int
}

func newOutcomes() *outcomes {
	return &outcomes{counts: make(map[string]int)}
}

func (o *outcomes) record(reason DiscardReason, category string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.counts[string(reason)+"/"+category]++
}

// Count returns the tally for a given reason/category pair.
func (o *outcomes) Count(reason DiscardReason, category string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counts[string(reason)+"/"+category]
}

// Snapshot returns a copy of all tallies, keyed "reason/category".
func (o *outcomes) Snapshot() map[string]int {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]int, len(o.counts))
	for k, v := range o.counts {
		out[k] = v
	}
	return out
}
