// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"encoding/json"
	"time"

	"github.com/flarehq/flare-go/ext"
)

// --- event item ------------------------------------------------------------

type messagePayload struct {
	Formatted string `json:"formatted"`
}

type exceptionPayload struct {
	Type       string             `json:"type,omitempty"`
	Value      string             `json:"value,omitempty"`
	Stacktrace *stacktracePayload `json:"stacktrace,omitempty"`
}

type stacktracePayload struct {
	Frames []framePayload `json:"frames"`
}

type framePayload struct {
	Function string `json:"function,omitempty"`
	Filename string `json:"filename,omitempty"`
	Lineno   int    `json:"lineno,omitempty"`
}

type requestPayload struct {
	URL         string            `json:"url,omitempty"`
	Method      string            `json:"method,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	QueryString string            `json:"query_string,omitempty"`
	Cookies     string            `json:"cookies,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
}

type userPayload struct {
	ID        string `json:"id,omitempty"`
	Email     string `json:"email,omitempty"`
	Username  string `json:"username,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
}

type breadcrumbPayload struct {
	Timestamp string         `json:"timestamp"`
	Category  string         `json:"category,omitempty"`
	Level     string         `json:"level,omitempty"`
	Message   string         `json:"message,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

type tracePayload struct {
	TraceID      string `json:"trace_id"`
	SpanID       string `json:"span_id"`
	ParentSpanID string `json:"parent_span_id,omitempty"`
	Op           string `json:"op,omitempty"`
	Status       string `json:"status,omitempty"`
}

type sdkPayload struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type eventPayload struct {
	EventID     string                    `json:"event_id"`
	Timestamp   string                    `json:"timestamp"`
	Level       string                    `json:"level,omitempty"`
	Message     *messagePayload           `json:"message,omitempty"`
	Exception   []exceptionPayload        `json:"exception,omitempty"`
	Stacktrace  *stacktracePayload        `json:"stacktrace,omitempty"`
	Request     *requestPayload           `json:"request,omitempty"`
	User        *userPayload              `json:"user,omitempty"`
	Tags        map[string]string         `json:"tags,omitempty"`
	Extra       map[string]any            `json:"extra,omitempty"`
	Contexts    map[string]map[string]any `json:"contexts,omitempty"`
	Breadcrumbs []breadcrumbPayload       `json:"breadcrumbs,omitempty"`
	Release     string                    `json:"release,omitempty"`
	Environment string                    `json:"environment,omitempty"`
	Transaction string                    `json:"transaction,omitempty"`
	Fingerprint []string                  `json:"fingerprint,omitempty"`
	SDK         sdkPayload                `json:"sdk"`
	Trace       *tracePayload             `json:"trace,omitempty"`
}

func framesToPayload(frames []Frame) *stacktracePayload {
	if len(frames) == 0 {
		return nil
	}
	out := make([]framePayload, len(frames))
	for i, f := range frames {
		out[i] = framePayload{Function: f.Function, Filename: f.File, Lineno: f.Line}
	}
	return &stacktracePayload{Frames: out}
}

func exceptionsToPayload(excs []Exception) []exceptionPayload {
	if len(excs) == 0 {
		return nil
	}
	out := make([]exceptionPayload, len(excs))
	for i, e := range excs {
		out[i] = exceptionPayload{Type: e.Type, Value: e.Value, Stacktrace: framesToPayload(e.Stacktrace)}
	}
	return out
}

func breadcrumbsToPayload(bs []Breadcrumb) []breadcrumbPayload {
	if len(bs) == 0 {
		return nil
	}
	out := make([]breadcrumbPayload, len(bs))
	for i, b := range bs {
		out[i] = breadcrumbPayload{
			Timestamp: b.Timestamp.UTC().Format(time.RFC3339Nano),
			Category:  b.Category,
			Level:     string(b.Level),
			Message:   b.Message,
			Data:      b.Data,
		}
	}
	return out
}

func eventToPayload(e *Event) eventPayload {
	p := eventPayload{
		EventID:     string(e.EventID),
		Timestamp:   e.Timestamp.UTC().Format(time.RFC3339Nano),
		Level:       string(e.Level),
		Exception:   exceptionsToPayload(e.Exceptions),
		Stacktrace:  framesToPayload(e.Stacktrace),
		Tags:        e.Tags,
		Extra:       e.Extra,
		Contexts:    e.Contexts,
		Breadcrumbs: breadcrumbsToPayload(e.Breadcrumbs),
		Release:     e.Release,
		Environment: e.Environment,
		Transaction: e.Transaction,
		Fingerprint: e.Fingerprint,
		SDK:         sdkPayload{Name: e.SDK.Name, Version: e.SDK.Version},
	}
	if e.Message != "" {
		p.Message = &messagePayload{Formatted: e.Message}
	}
	if e.Request != nil {
		p.Request = &requestPayload{
			URL: e.Request.URL, Method: e.Request.Method, Headers: e.Request.Headers,
			QueryString: e.Request.QueryString, Cookies: e.Request.Cookies, Env: e.Request.Env,
		}
	}
	if e.User != nil {
		p.User = &userPayload{ID: e.User.ID, Email: e.User.Email, Username: e.User.Username, IPAddress: e.User.IPAddress}
	}
	if e.Trace != nil {
		p.Trace = &tracePayload{
			TraceID: e.Trace.TraceID, SpanID: e.Trace.SpanID, ParentSpanID: e.Trace.ParentSpanID,
			Op: e.Trace.Op, Status: string(e.Trace.Status),
		}
	}
	return p
}

// buildEventEnvelope wraps event into a single-item "event" envelope.
// Attachments on scope, if any, become their own framed items alongside it.
func buildEventEnvelope(event *Event, scope *Scope) (*Envelope, error) {
	body, err := json.Marshal(eventToPayload(event))
	if err != nil {
		return nil, err
	}
	env := NewEnvelope()
	env.Header.EventID = event.EventID
	env.addItem(EnvelopeItem{Type: ext.CategoryEvent, Payload: body})
	if scope != nil {
		for _, a := range scope.attachmentsSnapshot() {
			env.addItem(EnvelopeItem{
				Type:           ext.CategoryAttachment,
				Filename:       a.Filename,
				ContentType:    a.ContentType,
				AttachmentType: a.AttachmentType,
				Payload:        a.Data,
			})
		}
	}
	return env, nil
}

// --- transaction item --------------------------------------------------------

type spanPayload struct {
	TraceID      string            `json:"trace_id"`
	SpanID       string            `json:"span_id"`
	ParentSpanID string            `json:"parent_span_id,omitempty"`
	Op           string            `json:"op,omitempty"`
	Description  string            `json:"description,omitempty"`
	Status       string            `json:"status,omitempty"`
	StartTime    string            `json:"start_timestamp"`
	EndTime      string            `json:"timestamp"`
	Tags         map[string]string `json:"tags,omitempty"`
	Data         map[string]any    `json:"data,omitempty"`
}

type transactionPayload struct {
	EventID     string            `json:"event_id"`
	Transaction string            `json:"transaction"`
	TraceID     string            `json:"trace_id"`
	SpanID      string            `json:"span_id"`
	Op          string            `json:"op,omitempty"`
	Status      string            `json:"status,omitempty"`
	StartTime   string            `json:"start_timestamp"`
	EndTime     string            `json:"timestamp"`
	Tags        map[string]string `json:"tags,omitempty"`
	Spans       []spanPayload     `json:"spans,omitempty"`
	SDK         sdkPayload        `json:"sdk"`
}

// buildTransactionEnvelope wraps a finished, sampled transaction and its
// finished children into a single "transaction" envelope item.
func buildTransactionEnvelope(inner *transactionInner) (*Envelope, error) {
	inner.mu.Lock()
	spans := make([]spanPayload, len(inner.spans))
	for i, s := range inner.spans {
		spans[i] = spanPayload{
			TraceID: s.TraceID, SpanID: s.SpanID, ParentSpanID: s.ParentSpanID,
			Op: s.Op, Description: s.Description, Status: string(s.Status),
			StartTime: s.StartTime.UTC().Format(time.RFC3339Nano),
			EndTime:   s.EndTime.UTC().Format(time.RFC3339Nano),
			Tags:      s.Tags, Data: s.Data,
		}
	}
	p := transactionPayload{
		EventID:     string(newEventID()),
		Transaction: inner.name,
		TraceID:     inner.traceID,
		SpanID:      inner.spanID,
		Op:          inner.op,
		Status:      string(inner.status),
		StartTime:   inner.start.UTC().Format(time.RFC3339Nano),
		EndTime:     inner.end.UTC().Format(time.RFC3339Nano),
		Tags:        inner.tags,
		Spans:       spans,
		SDK:         sdkPayload{Name: sdkName, Version: Version},
	}
	inner.mu.Unlock()

	body, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	env := NewEnvelope()
	env.Header.EventID = EventID(p.EventID)
	env.addItem(EnvelopeItem{Type: ext.CategoryTransaction, Payload: body})
	return env, nil
}

// --- session items -----------------------------------------------------------

type sessionPayload struct {
	SID      string  `json:"sid"`
	DID      string  `json:"did,omitempty"`
	Started  string  `json:"started"`
	Status   string  `json:"status"`
	Errors   int     `json:"errors"`
	Duration float64 `json:"duration,omitempty"`
	Seq      int     `json:"seq"`
	Init     bool    `json:"init,omitempty"`
	Attrs    struct {
		Release     string `json:"release"`
		Environment string `json:"environment,omitempty"`
	} `json:"attrs"`
}

// buildSessionEnvelope wraps a single Application-mode session update into
// a "session" envelope item.
func buildSessionEnvelope(snap sessionSnapshot) (*Envelope, error) {
	p := sessionPayload{
		SID:      snap.ID,
		DID:      snap.DID,
		Started:  snap.Started.UTC().Format(time.RFC3339Nano),
		Status:   string(snap.Status),
		Errors:   snap.Errors,
		Duration: snap.Duration.Seconds(),
		Seq:      snap.Sequence,
		Init:     snap.Sequence == 0,
	}
	p.Attrs.Release = snap.Release
	p.Attrs.Environment = snap.Environment

	body, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	env := NewEnvelope()
	env.addItem(EnvelopeItem{Type: ext.CategorySession, Payload: body})
	return env, nil
}

type sessionAggregateRow struct {
	StartedMinute time.Time
	Release       string
	Environment   string
	Exited        int
	Crashed       int
	Abnormal      int
	Errored       int
}

type sessionAggregateGroup struct {
	Attrs struct {
		Release     string `json:"release"`
		Environment string `json:"environment,omitempty"`
	} `json:"attrs"`
	Aggregates []sessionAggregateEntry `json:"aggregates"`
}

type sessionAggregatesPayload struct {
	Groups []sessionAggregateGroup `json:"groups"`
}

type sessionAggregateEntry struct {
	Started  string `json:"started"`
	Exited   int    `json:"exited,omitempty"`
	Crashed  int    `json:"crashed,omitempty"`
	Abnormal int    `json:"abnormal,omitempty"`
	Errored  int    `json:"errored,omitempty"`
}

// buildSessionAggregatesEnvelope wraps every pending Request-mode session
// bucket into a single "sessions" envelope item, nesting one group per
// distinct (release, environment) pair rather than emitting one item per
// group.
func buildSessionAggregatesEnvelope(rows []sessionAggregateRow) (*Envelope, error) {
	byAttrs := make(map[[2]string][]sessionAggregateRow)
	order := make([][2]string, 0)
	for _, r := range rows {
		key := [2]string{r.Release, r.Environment}
		if _, ok := byAttrs[key]; !ok {
			order = append(order, key)
		}
		byAttrs[key] = append(byAttrs[key], r)
	}

	p := sessionAggregatesPayload{Groups: make([]sessionAggregateGroup, 0, len(order))}
	for _, key := range order {
		group := sessionAggregateGroup{}
		group.Attrs.Release = key[0]
		group.Attrs.Environment = key[1]
		for _, r := range byAttrs[key] {
			group.Aggregates = append(group.Aggregates, sessionAggregateEntry{
				Started:  r.StartedMinute.UTC().Format(time.RFC3339),
				Exited:   r.Exited,
				Crashed:  r.Crashed,
				Abnormal: r.Abnormal,
				Errored:  r.Errored,
			})
		}
		p.Groups = append(p.Groups, group)
	}

	body, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	env := NewEnvelope()
	env.addItem(EnvelopeItem{Type: ext.CategorySessions, Payload: body})
	return env, nil
}

// --- log items ----------------------------------------------------------------

type logPayload struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Body      string         `json:"body"`
	Attrs     map[string]any `json:"attributes,omitempty"`
	TraceID   string         `json:"trace_id,omitempty"`
}

// buildLogsEnvelope wraps a batch of structured logs into a single item
// carrying the whole batch, matching the "one flush produces one envelope
// with log items" contract.
func buildLogsEnvelope(logs []Log) (*Envelope, error) {
	items := make([]logPayload, len(logs))
	for i, l := range logs {
		items[i] = logPayload{
			Timestamp: l.Timestamp.UTC().Format(time.RFC3339Nano),
			Level:     string(l.Level),
			Body:      l.Body,
			Attrs:     l.Attributes,
			TraceID:   l.TraceID,
		}
	}
	body, err := json.Marshal(struct {
		Items []logPayload `json:"items"`
	}{Items: items})
	if err != nil {
		return nil, err
	}
	env := NewEnvelope()
	env.addItem(EnvelopeItem{Type: ext.CategoryLogItem, Payload: body})
	return env, nil
}
