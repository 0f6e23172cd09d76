// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"time"

	"github.com/google/uuid"

	"github.com/flarehq/flare-go/ext"
)

// EventID is the random 128-bit identifier assigned to every Event, and
// exposed to callers so they can cross-reference a report after the fact.
type EventID string

// newEventID generates a fresh random event id. Invariant: once assigned to
// an Event it is never reassigned.
func newEventID() EventID {
	return EventID(uuid.New().String())
}

// Exception describes one layer of an error chain. CaptureError walks
// error.Unwrap chains producing one Exception per layer, outermost first.
type Exception struct {
	Type       string
	Value      string
	Stacktrace []Frame
}

// Frame is one stack entry, populated by gostackparse when AttachStacktrace
// is enabled. This is deliberately shallow: no debug-image or source-line
// resolution, which is an explicit non-goal.
type Frame struct {
	Function string
	File     string
	Line     int
}

// Request carries the subset of an inbound HTTP request worth reporting.
// Cookie and Authorization-style header values are stripped unless
// SendDefaultPII is enabled.
type Request struct {
	URL         string
	Method      string
	Headers     map[string]string
	QueryString string
	Cookies     string
	Env         map[string]string
}

// User identifies the actor an event is attributed to.
type User struct {
	ID        string
	Email     string
	Username  string
	IPAddress string
}

// TraceContext is the (trace_id, span_id, parent_span_id) triple attached to
// an event, either from the scope's active span or its propagation context.
type TraceContext struct {
	TraceID      string
	SpanID       string
	ParentSpanID string
	Op           string
	Status       ext.SpanStatus
	Sampled      *bool
}

// Event is the root payload of the "event" envelope item: an error report
// or a plain message, decorated with scope context before it is sent.
//
// Invariant: EventID is set before the pipeline runs and never changes
// afterwards.
type Event struct {
	EventID     EventID
	Level       ext.Level
	Timestamp   time.Time
	Message     string
	Exceptions  []Exception
	Request     *Request
	User        *User
	Tags        map[string]string
	Extra       map[string]any
	Contexts    map[string]map[string]any
	Breadcrumbs []Breadcrumb
	Release     string
	Environment string
	Transaction string
	Fingerprint []string
	SDK         SDKInfo
	Trace       *TraceContext
	// Stacktrace is populated by AttachStacktrace when the event carries
	// no exception of its own.
	Stacktrace []Frame
}

// SDKInfo identifies the client library that produced an Event, matching
// the protocol's conventional "sdk" metadata block.
type SDKInfo struct {
	Name    string
	Version string
}

// NewEvent returns an Event with its identity and timestamp already set, the
// way the pipeline expects every Event to arrive.
func NewEvent(level ext.Level) *Event {
	return &Event{
		EventID:   newEventID(),
		Level:     level,
		Timestamp: time.Now(),
		Tags:      make(map[string]string),
		Extra:     make(map[string]any),
		Contexts:  make(map[string]map[string]any),
		SDK:       SDKInfo{Name: "flare-go", Version: Version},
	}
}

// messageEvent builds a plain-message Event (no exception chain).
func messageEvent(level ext.Level, message string) *Event {
	e := NewEvent(level)
	e.Message = message
	return e
}
