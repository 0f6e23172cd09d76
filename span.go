// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"context"
	"sync"
	"time"

	"github.com/flarehq/flare-go/ext"
)

// protocolSpan is the finished, serializable representation of a Span,
// appended to its parent Transaction's list.
type protocolSpan struct {
	TraceID      string
	SpanID       string
	ParentSpanID string
	Op           string
	Description  string
	Status       ext.SpanStatus
	StartTime    time.Time
	EndTime      time.Time
	Tags         map[string]string
	Data         map[string]any
}

// Span is a child unit of work within a Transaction. A Span never owns a
// reference to its parent span, only to the Transaction's shared inner
// record — this keeps the tree acyclic and finish-on-call straightforward.
type Span struct {
	traceID      string
	spanID       string
	parentSpanID string
	op           string
	description  string
	startTime    time.Time

	mu       sync.Mutex
	status   ext.SpanStatus
	tags     map[string]string
	data     map[string]any
	finished bool

	tx *transactionInner
}

// noopSpanSentinel is returned once a transaction has finished; every
// operation on it is a silent no-op.
var noopSpanSentinel = &Span{finished: true}

// SetTag sets a tag on the span. Ignored once finished.
func (s *Span) SetTag(key, value string) *Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return s
	}
	if s.tags == nil {
		s.tags = make(map[string]string)
	}
	s.tags[key] = value
	return s
}

// SetData attaches structured data to the span. Ignored once finished.
func (s *Span) SetData(key string, value any) *Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return s
	}
	if s.data == nil {
		s.data = make(map[string]any)
	}
	s.data[key] = value
	return s
}

// SetStatus records the span's outcome status. Ignored once finished.
func (s *Span) SetStatus(status ext.SpanStatus) *Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finished {
		s.status = status
	}
	return s
}

// TraceID returns the trace this span belongs to.
func (s *Span) TraceID() string { return s.traceID }

// SpanID returns this span's own id.
func (s *Span) SpanID() string { return s.spanID }

// Sampled reports whether this span's transaction decided to sample.
func (s *Span) Sampled() bool {
	if s.tx == nil {
		return false
	}
	s.tx.mu.Lock()
	defer s.tx.mu.Unlock()
	return s.tx.sampled
}

// StartChild allocates a grandchild span, parented to s rather than to the
// transaction root.
func (s *Span) StartChild(op, description string) *Span {
	if s == nil || s.tx == nil {
		return noopSpanSentinel
	}
	return s.tx.startChild(op, description, s.spanID)
}

// Finish sets the end timestamp and appends a protocol snapshot to the
// parent transaction's span list. Idempotent.
func (s *Span) Finish() {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	end := time.Now()
	snap := protocolSpan{
		TraceID:      s.traceID,
		SpanID:       s.spanID,
		ParentSpanID: s.parentSpanID,
		Op:           s.op,
		Description:  s.description,
		Status:       s.status,
		StartTime:    s.startTime,
		EndTime:      end,
		Tags:         s.tags,
		Data:         s.data,
	}
	s.mu.Unlock()
	if s.tx != nil {
		s.tx.appendFinishedSpan(snap)
	}
}

// spanContextKey is the context.Context key an active *Span is stored
// under, so contrib-style instrumentation can thread it through call
// chains the way the hub is threaded.
type spanContextKey struct{}

// ContextWithSpan returns a derived context carrying span as the active
// span for downstream header propagation.
func ContextWithSpan(ctx context.Context, span *Span) context.Context {
	return context.WithValue(ctx, spanContextKey{}, span)
}

// SpanFromContext returns the active span stored in ctx, or nil.
func SpanFromContext(ctx context.Context) *Span {
	s, _ := ctx.Value(spanContextKey{}).(*Span)
	return s
}
