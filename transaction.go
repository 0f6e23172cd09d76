// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/flarehq/flare-go/ext"
)

// TransactionContext seeds a new Transaction: either freshly generated ids
// and a local sampling decision, or ids/sampling continued from an inbound
// distributed-tracing header.
type TransactionContext struct {
	Name string
	Op   string

	TraceID      string
	ParentSpanID string
	// parentSampled is non-nil when propagated from an upstream header;
	// it overrides the local sampling decision.
	parentSampled *bool
}

// NewTransactionContext starts a context with freshly generated trace ids.
func NewTransactionContext(name, op string) TransactionContext {
	return TransactionContext{Name: name, Op: op, TraceID: randomHex(16)}
}

// traceHeaderName / baggageHeaderName are the wire header names for
// distributed-tracing propagation.
const (
	traceHeaderName   = "flare-trace"
	baggageHeaderName = "baggage"
)

// ContinueFromHeaders reads an incoming "flare-trace" header of the form
// "<trace_id>-<span_id>[-<sampled:0|1>]" and returns a TransactionContext
// that continues that trace. If the header is absent or malformed, a fresh
// context is returned instead.
func ContinueFromHeaders(name, op string, headers map[string]string) TransactionContext {
	tc := NewTransactionContext(name, op)
	var raw string
	for k, v := range headers {
		if strings.EqualFold(k, traceHeaderName) {
			raw = v
			break
		}
	}
	if raw == "" {
		return tc
	}
	parts := strings.Split(raw, "-")
	if len(parts) < 2 || len(parts[0]) != 32 || len(parts[1]) != 16 {
		return tc
	}
	tc.TraceID = parts[0]
	tc.ParentSpanID = parts[1]
	if len(parts) >= 3 {
		sampled := parts[2] == "1"
		tc.parentSampled = &sampled
	}
	return tc
}

// transactionInner is the shared record a Transaction and all its Spans
// hold a reference to. Spans never point at their parent span, only at
// this record, which avoids cyclic ownership.
type transactionInner struct {
	mu       sync.Mutex
	traceID  string
	spanID   string
	op       string
	name     string
	status   ext.SpanStatus
	start    time.Time
	end      time.Time
	tags     map[string]string
	data     map[string]any
	sampled  bool
	finished bool
	spans    []protocolSpan

	client *Client
}

// Transaction is the root of a performance trace.
type Transaction struct {
	inner *transactionInner
}

func decideSampled(cfg *config, ctx TransactionContext) bool {
	if ctx.parentSampled != nil {
		return *ctx.parentSampled
	}
	if cfg.tracesSampler != nil {
		return cfg.tracesSampler(ctx) >= rand.Float64()
	}
	return cfg.tracesSampleRate >= rand.Float64()
}

func startTransaction(client *Client, ctx TransactionContext) *Transaction {
	inner := &transactionInner{
		traceID: ctx.TraceID,
		spanID:  randomHex(8),
		op:      ctx.Op,
		name:    ctx.Name,
		start:   time.Now(),
		client:  client,
	}
	if client != nil {
		inner.sampled = decideSampled(client.cfg, ctx)
	}
	return &Transaction{inner: inner}
}

func (t *Transaction) startChildFromTx(op, description string) *Span {
	return t.inner.startChild(op, description, t.inner.spanID)
}

func (inner *transactionInner) startChild(op, description, parentSpanID string) *Span {
	inner.mu.Lock()
	finished := inner.finished
	traceID := inner.traceID
	inner.mu.Unlock()
	if finished {
		return noopSpanSentinel
	}
	return &Span{
		traceID:      traceID,
		spanID:       randomHex(8),
		parentSpanID: parentSpanID,
		op:           op,
		description:  description,
		startTime:    time.Now(),
		status:       ext.SpanStatusUndefined,
		tx:           inner,
	}
}

func (inner *transactionInner) appendFinishedSpan(snap protocolSpan) {
	inner.mu.Lock()
	defer inner.mu.Unlock()
	if inner.finished {
		return
	}
	inner.spans = append(inner.spans, snap)
}

// StartChild allocates a child span parented directly to the transaction's
// own span id.
func (t *Transaction) StartChild(op, description string) *Span {
	return t.startChildFromTx(op, description)
}

// SetTag sets a tag on the transaction. Ignored once finished.
func (t *Transaction) SetTag(key, value string) *Transaction {
	t.inner.mu.Lock()
	defer t.inner.mu.Unlock()
	if t.inner.finished {
		return t
	}
	if t.inner.tags == nil {
		t.inner.tags = make(map[string]string)
	}
	t.inner.tags[key] = value
	return t
}

// SetStatus records the transaction's outcome status.
func (t *Transaction) SetStatus(status ext.SpanStatus) *Transaction {
	t.inner.mu.Lock()
	defer t.inner.mu.Unlock()
	if !t.inner.finished {
		t.inner.status = status
	}
	return t
}

// TraceID returns the transaction's trace id.
func (t *Transaction) TraceID() string { return t.inner.traceID }

// SpanID returns the transaction's own root span id.
func (t *Transaction) SpanID() string { return t.inner.spanID }

// Sampled reports the sticky sampling decision made at start.
func (t *Transaction) Sampled() bool {
	t.inner.mu.Lock()
	defer t.inner.mu.Unlock()
	return t.inner.sampled
}

// IterHeaders returns the distributed-tracing headers downstream services
// should receive to continue this trace.
func (t *Transaction) IterHeaders() map[string]string {
	t.inner.mu.Lock()
	defer t.inner.mu.Unlock()
	sampledFlag := "0"
	if t.inner.sampled {
		sampledFlag = "1"
	}
	return map[string]string{
		traceHeaderName: t.inner.traceID + "-" + t.inner.spanID + "-" + sampledFlag,
		baggageHeaderName: "flare-trace_id=" + t.inner.traceID +
			",flare-sample_rate=" + strconv.FormatBool(t.inner.sampled),
	}
}

// Finish sets the end timestamp and, if sampled, hands a "transaction"
// envelope to the client's transport. Idempotent; unsampled transactions
// (and all of their children) are dropped without ever being serialized.
func (t *Transaction) Finish() {
	inner := t.inner
	inner.mu.Lock()
	if inner.finished {
		inner.mu.Unlock()
		return
	}
	inner.finished = true
	inner.end = time.Now()
	sampled := inner.sampled
	client := inner.client
	inner.mu.Unlock()

	if !sampled || client == nil {
		return
	}
	client.captureTransaction(inner)
}
