// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"context"
	"sync"

	"github.com/flarehq/flare-go/ext"
)

// layer is one (client, scope) entry of a Hub's stack.
type layer struct {
	client *Client
	scope  *Scope
}

// Hub is a non-empty stack of (client, scope) layers. Pushing duplicates
// the top layer's scope with an eager copy of its collections (no
// structural sharing); popping discards it. The stack is
// never empty: popping at depth 1 clears the top scope instead of shrinking
// the stack.
//
// A Hub is internally synchronized, but two goroutines sharing the same
// Hub may still observe interleaved scope state — correct use is one hub
// per goroutine/request, migrated via NewFromTop.
type Hub struct {
	mu          sync.Mutex
	stack       []*layer
	lastEventID EventID
	configuring bool
}

// NewHub returns a hub with a single layer: the given client (may be nil)
// and a fresh scope.
func NewHub(client *Client) *Hub {
	maxB := defaultMaxBreadcrumbs
	if client != nil {
		maxB = client.cfg.maxBreadcrumbs
	}
	return &Hub{stack: []*layer{{client: client, scope: NewScope(maxB)}}}
}

// NewFromTop returns a fresh hub whose single layer copies the top
// (client, scope) of other — the sanctioned way to migrate context across
// goroutine/task boundaries.
func NewFromTop(other *Hub) *Hub {
	other.mu.Lock()
	top := other.stack[len(other.stack)-1]
	client := top.client
	scope := top.scope.Clone()
	other.mu.Unlock()
	return &Hub{stack: []*layer{{client: client, scope: scope}}}
}

// ScopeGuard is returned by PushScope; calling Pop restores the previous
// scope. Guards must be popped in LIFO order; popping out of order clears
// the offending layer rather than corrupting the stack depth.
type ScopeGuard struct {
	hub     *Hub
	depth   int
	popped  bool
	muGuard sync.Mutex
}

// PushScope duplicates the top scope and returns a guard to restore it.
func (h *Hub) PushScope() *ScopeGuard {
	h.mu.Lock()
	top := h.stack[len(h.stack)-1]
	h.stack = append(h.stack, &layer{client: top.client, scope: top.scope.Clone()})
	depth := len(h.stack)
	h.mu.Unlock()
	return &ScopeGuard{hub: h, depth: depth}
}

// Pop restores the scope beneath this guard's layer. If called out of
// order (another guard was pushed after this one and not yet popped), the
// implementation degrades gracefully: it clears the current top scope
// rather than corrupting the stack.
func (g *ScopeGuard) Pop() {
	g.muGuard.Lock()
	defer g.muGuard.Unlock()
	if g.popped {
		return
	}
	g.popped = true
	h := g.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.stack) <= 1 {
		// depth 1: a pop is a no-op that clears the top scope instead.
		h.stack[0].scope.Clear()
		return
	}
	if len(h.stack) == g.depth {
		h.stack = h.stack[:len(h.stack)-1]
		return
	}
	// out-of-order pop: clear the current top rather than shrink past
	// layers a still-open guard expects to find.
	h.stack[len(h.stack)-1].scope.Clear()
}

func (h *Hub) top() *layer {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stack[len(h.stack)-1]
}

// Client returns the client installed on the top layer, or nil.
func (h *Hub) Client() *Client {
	return h.top().client
}

// Scope returns the top layer's scope.
func (h *Hub) Scope() *Scope {
	return h.top().scope
}

// BindClient installs client as the top layer's client.
func (h *Hub) BindClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stack[len(h.stack)-1].client = client
}

// ConfigureScope runs fn with exclusive access to the top scope. Re-entrant
// calls (fn itself calling ConfigureScope on the same hub) are detected and
// turned into a no-op rather than deadlocking.
func (h *Hub) ConfigureScope(fn func(*Scope)) {
	h.mu.Lock()
	if h.configuring {
		h.mu.Unlock()
		return
	}
	h.configuring = true
	scope := h.stack[len(h.stack)-1].scope
	h.mu.Unlock()

	fn(scope)

	h.mu.Lock()
	h.configuring = false
	h.mu.Unlock()
}

// CaptureEvent forwards event to the hub's client, applying the top scope.
func (h *Hub) CaptureEvent(event *Event) EventID {
	l := h.top()
	if l.client == nil {
		return event.EventID
	}
	id := l.client.captureEvent(event, l.scope)
	h.mu.Lock()
	h.lastEventID = id
	h.mu.Unlock()
	return id
}

// CaptureMessage builds and captures a message-only event.
func (h *Hub) CaptureMessage(message string, level ext.Level) EventID {
	return h.CaptureEvent(messageEvent(level, message))
}

// CaptureError walks err's Unwrap chain, producing one Exception per layer
// outermost first, and captures the resulting event.
func (h *Hub) CaptureError(err error) EventID {
	return h.CaptureEvent(eventFromError(err))
}

// AddBreadcrumb runs the client's before_breadcrumb transform (if any) and
// appends the result to the top scope, dropping it on a nil return.
func (h *Hub) AddBreadcrumb(b Breadcrumb) {
	l := h.top()
	if l.client != nil && l.client.cfg.beforeBreadcrumb != nil {
		out := l.client.cfg.beforeBreadcrumb(b)
		if out == nil {
			return
		}
		b = *out
	}
	l.scope.AddBreadcrumb(b)
}

// CaptureLog enqueues a structured log on the hub's client, if logs are
// enabled.
func (h *Hub) CaptureLog(level ext.Level, body string, attrs map[string]any) {
	l := h.top()
	if l.client == nil {
		return
	}
	l.client.captureLog(Log{Level: level, Body: body, Attributes: attrs}, l.scope)
}

// LastEventID returns the most recent event_id captured on this hub.
func (h *Hub) LastEventID() (EventID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastEventID, h.lastEventID != ""
}

// StartTransaction constructs a Transaction bound to the hub's current
// client, seeded by ctx.
func (h *Hub) StartTransaction(ctx TransactionContext) *Transaction {
	return startTransaction(h.Client(), ctx)
}

// StartSession starts a release-health session on this hub.
func (h *Hub) StartSession() {
	l := h.top()
	if l.client == nil {
		return
	}
	l.client.startSession(l.scope)
}

// EndSession ends the hub's active session with status Exited.
func (h *Hub) EndSession() {
	h.EndSessionWithStatus(ext.SessionStatusExited)
}

// EndSessionWithStatus ends the hub's active session with the given status.
func (h *Hub) EndSessionWithStatus(status ext.SessionStatus) {
	l := h.top()
	if l.client == nil {
		return
	}
	l.client.endSession(l.scope, status)
}

// --- process-wide current hub -------------------------------------------------

var (
	mainHubMu sync.Mutex
	mainHub   = NewHub(nil)
)

// CurrentHub returns the process-wide main hub. Applications that never
// migrate context across goroutines can use this exclusively.
func CurrentHub() *Hub {
	mainHubMu.Lock()
	defer mainHubMu.Unlock()
	return mainHub
}

// setMainHub replaces the process-wide main hub; used by Init.
func setMainHub(h *Hub) {
	mainHubMu.Lock()
	defer mainHubMu.Unlock()
	mainHub = h
}

type hubContextKey struct{}

// WithHub returns a context carrying hub as the active hub for the
// duration of whatever is done with the returned context — the Go
// equivalent of "bind this hub as current for block B, then restore"
//, since goroutines have no addressable thread-local slot
// to bind/restore directly.
func WithHub(ctx context.Context, hub *Hub) context.Context {
	return context.WithValue(ctx, hubContextKey{}, hub)
}

// HubFromContext returns the hub bound to ctx via WithHub, or the
// process-wide main hub if none was bound.
func HubFromContext(ctx context.Context) *Hub {
	if h, ok := ctx.Value(hubContextKey{}).(*Hub); ok && h != nil {
		return h
	}
	return CurrentHub()
}
