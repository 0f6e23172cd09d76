// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"sync"
	"time"

	queue "github.com/eapache/queue/v2"
	"go.uber.org/atomic"

	"github.com/flarehq/flare-go/ext"
	"github.com/flarehq/flare-go/internal/log"
)

// Log is one structured-log record captured via Hub.CaptureLog.
type Log struct {
	Timestamp  time.Time
	Level      ext.Level
	Body       string
	Attributes map[string]any
	TraceID    string
}

// logsBatcherHardCapFactor bounds the pending queue at a multiple of the
// configured batch size; beyond it, the oldest pending log is dropped
// rather than blocking the caller.
const logsBatcherHardCapFactor = 10

// logsBatcher is the bounded-queue worker for structured logs: it flushes
// when the pending queue reaches maxBatch, or flushInterval has elapsed since
// the oldest pending log, or a flush is explicitly requested. Built on
// eapache/queue/v2, the same ring-buffer queue backing Scope's breadcrumb
// FIFO.
type logsBatcher struct {
	client        *Client
	maxBatch      int
	flushInterval time.Duration
	hardCap       int

	wake     chan struct{}
	flushReq chan chan struct{}
	done     chan struct{}
	drained  chan struct{}

	closed       atomic.Bool
	shutdownOnce sync.Once

	mu     sync.Mutex
	queue  *queue.Queue[Log]
	oldest time.Time
}

func newLogsBatcher(client *Client, maxBatch int, flushInterval time.Duration) *logsBatcher {
	if maxBatch <= 0 {
		maxBatch = logsMaxBatchSizeDefault
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	b := &logsBatcher{
		client:        client,
		maxBatch:      maxBatch,
		flushInterval: flushInterval,
		hardCap:       maxBatch * logsBatcherHardCapFactor,
		wake:          make(chan struct{}, 1),
		flushReq:      make(chan chan struct{}),
		done:          make(chan struct{}),
		drained:       make(chan struct{}),
		queue:         queue.New[Log](),
	}
	go b.run()
	return b
}

// enqueue appends l to the pending queue without blocking the caller. Past
// the hard cap, the oldest pending log is dropped and tallied as a
// discarded outcome.
func (b *logsBatcher) enqueue(l Log) {
	if b.closed.Load() {
		return
	}
	b.mu.Lock()
	if b.queue.Length() == 0 {
		b.oldest = l.Timestamp
	}
	b.queue.Add(l)
	dropped := false
	for b.queue.Length() > b.hardCap {
		b.queue.Remove()
		dropped = true
	}
	ready := b.queue.Length() >= b.maxBatch
	b.mu.Unlock()

	if dropped {
		b.client.outcomes.record(DiscardReasonQueueOverflow, string(ext.CategoryLogItem))
	}
	if ready {
		select {
		case b.wake <- struct{}{}:
		default:
		}
	}
}

func (b *logsBatcher) run() {
	ticker := time.NewTicker(b.tickInterval())
	defer ticker.Stop()
	defer close(b.drained)
	for {
		select {
		case <-b.wake:
			b.maybeFlush()
		case <-ticker.C:
			b.maybeFlush()
		case ack := <-b.flushReq:
			b.flushNow()
			close(ack)
		case <-b.done:
			b.flushNow()
			return
		}
	}
}

// tickInterval checks flush conditions more often than flushInterval so the
// time-based trigger fires close to its deadline rather than up to a whole
// interval late.
func (b *logsBatcher) tickInterval() time.Duration {
	t := b.flushInterval / 5
	if t < 50*time.Millisecond {
		t = 50 * time.Millisecond
	}
	return t
}

func (b *logsBatcher) maybeFlush() {
	b.mu.Lock()
	due := b.queue.Length() > 0 &&
		(b.queue.Length() >= b.maxBatch || time.Since(b.oldest) >= b.flushInterval)
	b.mu.Unlock()
	if due {
		b.flushNow()
	}
}

// flushNow drains the pending queue and, if non-empty, ships one envelope
// carrying all of it.
func (b *logsBatcher) flushNow() {
	b.mu.Lock()
	n := b.queue.Length()
	if n == 0 {
		b.mu.Unlock()
		return
	}
	batch := make([]Log, n)
	for i := range batch {
		batch[i] = b.queue.Remove()
	}
	b.oldest = time.Time{}
	b.mu.Unlock()

	env, err := buildLogsEnvelope(batch)
	if err != nil {
		log.Error("flare: encoding logs: %v", err)
		return
	}
	b.client.cfg.transport.SendEnvelope(env)
}

// flush requests an immediate flush and waits for it to complete.
func (b *logsBatcher) flush(deadline time.Duration) bool {
	if b.closed.Load() {
		return true
	}
	ack := make(chan struct{})
	timer := time.NewTimer(deadline)
	defer timer.Stop()
	select {
	case b.flushReq <- ack:
	case <-b.done:
		return true
	case <-timer.C:
		return false
	}
	select {
	case <-ack:
		return true
	case <-timer.C:
		return false
	}
}

// shutdown flushes and terminates the worker; idempotent.
func (b *logsBatcher) shutdown(deadline time.Duration) bool {
	ok := b.flush(deadline)
	b.shutdownOnce.Do(func() {
		b.closed.Store(true)
		close(b.done)
		<-b.drained
	})
	return ok
}
