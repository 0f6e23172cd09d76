// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"math/rand"
	"strings"
	"time"

	"github.com/flarehq/flare-go/ext"
	"github.com/flarehq/flare-go/internal/log"
)

// Client owns resolved options, integrations, transport, session flusher
// and logs batcher, and runs the event pipeline.
//
// A Client is immutable once constructed and safe for concurrent use; it is
// reference-counted implicitly by being installed on any number of Hub
// layers.
type Client struct {
	cfg      *config
	outcomes *outcomes

	flusher *sessionFlusher
	logs    *logsBatcher
}

// NewClient resolves opts and constructs a Client. If opts.DSN is empty or
// invalid, the returned client is inert: every capture call becomes a
// silent no-op.
func NewClient(opts ClientOptions) (*Client, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		log.Error("flare: invalid client options: %v", err)
		return &Client{cfg: &config{transport: NoopTransport{}}, outcomes: newOutcomes()}, err
	}
	out := newOutcomes()

	if cfg.transport == nil {
		if cfg.dsn == nil {
			cfg.transport = NoopTransport{}
		} else {
			cfg.transport = NewHTTPTransport(cfg.dsn, nil, out)
		}
	}
	for _, in := range cfg.integrations {
		in.Setup(&opts)
	}

	c := &Client{cfg: cfg, outcomes: out}
	c.flusher = newSessionFlusher(c, cfg.sessionFlushInterval)
	if cfg.enableLogs {
		c.logs = newLogsBatcher(c, cfg.logsMaxBatchSize, cfg.logsFlushInterval)
	}
	return c, nil
}

// Outcomes exposes the client's discarded-outcome tallies, primarily for
// tests.
func (c *Client) Outcomes() map[string]int { return c.outcomes.Snapshot() }

func (c *Client) inert() bool { return c.cfg.dsn == nil }

// captureEvent runs the event pipeline. It always returns the event's id,
// even when the event is dropped at any stage — callers may ignore the
// return value.
func (c *Client) captureEvent(event *Event, scope *Scope) EventID {
	if event.EventID == "" {
		event.EventID = newEventID()
	}
	id := event.EventID

	// 1. no DSN: inert client, drop.
	if c.inert() {
		return id
	}

	// 2. event_id already assigned above.

	// 3. apply scope.
	if scope != nil {
		event = scope.applyToEvent(event)
		if event == nil {
			c.outcomes.record(DiscardReasonEventProcessor, string(ext.CategoryEvent))
			return id
		}
	}

	if c.cfg.attachStacktrace && len(event.Exceptions) == 0 && len(event.Stacktrace) == 0 {
		frames := captureStacktrace()
		event.Stacktrace = applyInAppFilters(frames, c.cfg.inAppInclude, c.cfg.inAppExclude, c.cfg.trimBacktraces)
	}
	if !c.cfg.sendDefaultPII {
		stripPII(event)
	}
	if event.Release == "" {
		event.Release = c.cfg.release
	}
	if event.Environment == "" {
		event.Environment = c.cfg.environment
	}

	// 4. integrations, registration order; nil short-circuits.
	optsView := c.optionsView()
	for _, in := range c.cfg.integrations {
		event = in.ProcessEvent(event, optsView)
		if event == nil {
			c.outcomes.record(DiscardReasonEventProcessor, string(ext.CategoryEvent))
			return id
		}
	}

	// 5. before_send.
	if c.cfg.beforeSend != nil {
		event = c.cfg.beforeSend(event)
		if event == nil {
			c.outcomes.record(DiscardReasonBeforeSend, string(ext.CategoryEvent))
			return id
		}
	}

	// 6. sample by sample_rate.
	if c.cfg.sampleRate < 1 && rand.Float64() > c.cfg.sampleRate {
		c.outcomes.record(DiscardReasonSampleRate, string(ext.CategoryEvent))
		return id
	}

	// 7. rate-limit filtering for the event category is enforced
	// authoritatively by the transport worker right before the HTTP
	// round trip (transport.go, queueWorkerTransport.deliver), which is
	// also where the outcome is tallied — the client only needs to
	// enqueue. This avoids duplicating rate-limit state outside the
	// single worker goroutine that owns it.

	// 8. wrap into an envelope and hand to transport.
	env, err := buildEventEnvelope(event, scope)
	if err != nil {
		log.Error("flare: encoding event: %v", err)
		return id
	}
	c.cfg.transport.SendEnvelope(env)

	// 9. mark the scope's session errored and forward the update.
	if scope != nil {
		c.markSessionErrored(scope)
	}

	return id
}

// captureTransaction builds and sends a "transaction" envelope for a
// sampled, finished transaction.
func (c *Client) captureTransaction(inner *transactionInner) {
	if c.inert() {
		return
	}
	env, err := buildTransactionEnvelope(inner)
	if err != nil {
		log.Error("flare: encoding transaction: %v", err)
		return
	}
	c.cfg.transport.SendEnvelope(env)
}

// optionsView returns a read-only-by-convention ClientOptions snapshot for
// integrations, which take *ClientOptions in their extension-point
// signature.
func (c *Client) optionsView() *ClientOptions {
	return &ClientOptions{
		Release:            c.cfg.release,
		Environment:        c.cfg.environment,
		SendDefaultPII:     c.cfg.sendDefaultPII,
		MaxRequestBodySize: c.cfg.maxRequestBodySize,
	}
}

// stripPII removes known PII-bearing request fields when SendDefaultPII is
// false.
func stripPII(event *Event) {
	if event.Request == nil {
		return
	}
	r := event.Request
	r.Cookies = ""
	if r.Headers != nil {
		for k := range r.Headers {
			lk := strings.ToLower(k)
			if lk == "cookie" || lk == "authorization" || lk == "proxy-authorization" {
				delete(r.Headers, k)
			}
		}
	}
	if idx := strings.Index(r.URL, "@"); idx != -1 {
		if schemeIdx := strings.Index(r.URL, "://"); schemeIdx != -1 && schemeIdx < idx {
			r.URL = r.URL[:schemeIdx+3] + r.URL[idx+1:]
		}
	}
	if event.User != nil {
		event.User.IPAddress = ""
	}
}

// captureLog enqueues a structured log onto the logs batcher, tagging it
// with the active span's trace id when one is present.
func (c *Client) captureLog(l Log, scope *Scope) {
	if c.inert() || c.logs == nil {
		return
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now()
	}
	if l.TraceID == "" && scope != nil {
		if span := scope.Span(); span != nil {
			l.TraceID = span.TraceID()
		} else {
			l.TraceID = scope.propagationContext().TraceID
		}
	}
	c.logs.enqueue(l)
}

// Flush blocks until the transport queue, session flusher and logs batcher
// have drained or deadline elapses, whichever is first, splitting the
// budget between them in that order.
func (c *Client) Flush(deadline time.Duration) bool {
	remaining := deadline
	start := time.Now()
	ok := c.cfg.transport.Flush(remaining)
	remaining -= time.Since(start)
	if remaining < 0 {
		remaining = 0
	}
	if c.flusher != nil {
		start = time.Now()
		ok = c.flusher.flush(remaining) && ok
		remaining -= time.Since(start)
		if remaining < 0 {
			remaining = 0
		}
	}
	if c.logs != nil {
		ok = c.logs.flush(remaining) && ok
	}
	return ok
}

// Close flushes with the configured shutdown timeout and terminates all
// background workers. Idempotent.
func (c *Client) Close() bool {
	remaining := c.cfg.shutdownTimeout
	start := time.Now()
	ok := c.cfg.transport.Shutdown(remaining)
	remaining -= time.Since(start)
	if remaining < 0 {
		remaining = 0
	}
	if c.flusher != nil {
		start = time.Now()
		ok = c.flusher.shutdown(remaining) && ok
		remaining -= time.Since(start)
		if remaining < 0 {
			remaining = 0
		}
	}
	if c.logs != nil {
		ok = c.logs.shutdown(remaining) && ok
	}
	return ok
}
