// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"context"
	"sync"
	"time"

	"github.com/flarehq/flare-go/ext"
	"github.com/flarehq/flare-go/internal/log"
)

// Transport is the extension point the core requires of any delivery
// mechanism. The two reference implementations are
// HTTPTransport and NoopTransport; flaretest.Transport is a third,
// in-process implementation meant for tests.
type Transport interface {
	SendEnvelope(e *Envelope)
	Flush(deadline time.Duration) bool
	Shutdown(deadline time.Duration) bool
}

// NoopTransport discards everything immediately; used when a Client has no
// DSN.
type NoopTransport struct{}

func (NoopTransport) SendEnvelope(*Envelope)      {}
func (NoopTransport) Flush(time.Duration) bool    { return true }
func (NoopTransport) Shutdown(time.Duration) bool { return true }

// transportQueueCapacity is the bounded MPSC queue size.
const transportQueueCapacity = 64

// envelopeSender is the narrow capability the worker loop needs from an
// HTTP-backed sender; factored out so tests can stub network I/O without
// standing up a real listener.
type envelopeSender interface {
	send(ctx context.Context, body []byte) (status int, rateLimitHeader string, retryAfter string, err error)
}

// queueWorkerTransport is a bounded-queue, single-worker transport.
// HTTPTransport embeds it with a real envelopeSender; tests can embed it
// with a stub.
type queueWorkerTransport struct {
	queue    chan *Envelope
	done     chan struct{}
	drained  chan struct{}
	outcomes *outcomes
	limiter  *rateLimiter
	sender   envelopeSender

	shutdownOnce sync.Once
}

func newQueueWorkerTransport(sender envelopeSender, out *outcomes) *queueWorkerTransport {
	t := &queueWorkerTransport{
		queue:    make(chan *Envelope, transportQueueCapacity),
		done:     make(chan struct{}),
		drained:  make(chan struct{}),
		outcomes: out,
		limiter:  newRateLimiter(),
		sender:   sender,
	}
	go t.run()
	return t
}

// SendEnvelope never blocks the caller: a full queue drops the envelope and
// tallies it.
func (t *queueWorkerTransport) SendEnvelope(e *Envelope) {
	if e == nil {
		return
	}
	select {
	case t.queue <- e:
	default:
		for c := range e.categories() {
			t.outcomes.record(DiscardReasonQueueOverflow, string(c))
		}
		log.Warn("transport queue full, dropping envelope")
	}
}

func (t *queueWorkerTransport) run() {
	defer close(t.drained)
	for {
		select {
		case e := <-t.queue:
			t.deliver(e)
		case <-t.done:
			// drain whatever is already queued before exiting.
			for {
				select {
				case e := <-t.queue:
					t.deliver(e)
				default:
					return
				}
			}
		}
	}
}

func (t *queueWorkerTransport) deliver(e *Envelope) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("transport worker panic recovered: %v", r)
		}
	}()
	now := time.Now()
	filtered := t.limiter.filter(e, now, func(c ext.Category) {
		t.outcomes.record(DiscardReasonRateLimitBackoff, string(c))
	})
	if filtered == nil {
		return
	}
	body, err := filtered.Bytes()
	if err != nil {
		log.Error("serializing envelope: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	status, rlHeader, retryAfter, err := t.sender.send(ctx, body)
	if err != nil {
		log.Error("sending envelope: %v", err)
		for c := range filtered.categories() {
			t.outcomes.record(DiscardReasonNetworkError, string(c))
		}
		return
	}
	t.limiter.applyHeaders(rlHeader, retryAfter, status, time.Now())
	if status == 429 {
		return
	}
	if status < 200 || status >= 300 {
		log.Warn("envelope submission returned status %d", status)
	}
}

// Flush blocks until the queue drains or deadline elapses, returning
// whether it drained in time.
func (t *queueWorkerTransport) Flush(deadline time.Duration) bool {
	timer := time.NewTimer(deadline)
	defer timer.Stop()
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		if len(t.queue) == 0 {
			return true
		}
		select {
		case <-ticker.C:
			continue
		case <-timer.C:
			return false
		}
	}
}

// Shutdown is Flush followed by worker termination; idempotent.
func (t *queueWorkerTransport) Shutdown(deadline time.Duration) bool {
	drained := t.Flush(deadline)
	t.shutdownOnce.Do(func() {
		close(t.done)
		<-t.drained
	})
	return drained
}
