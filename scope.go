// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"sync"

	"github.com/flarehq/flare-go/ext"
)

// Attachment is a named blob travelling alongside an event, added to the
// envelope as its own framed item.
type Attachment struct {
	Filename       string
	ContentType    string
	AttachmentType string
	Data           []byte
}

// EventProcessor inspects or rewrites an event before it is sent. Returning
// nil drops the event.
type EventProcessor func(*Event) *Event

// Scope is the mutable contextual overlay merged into outgoing events.
// Scopes are cheaply cloneable: cloning yields independent mutability, so
// mutating one clone never affects another.
//
// Every Scope method takes the scope's own mutex, so individual calls are
// safe from multiple goroutines; the order in which concurrent mutations
// land is not defined.
type Scope struct {
	mu sync.Mutex

	level       *ext.Level
	fingerprint []string
	transaction string
	breadcrumbs *breadcrumbRing
	user        *User
	tags        map[string]string
	extra       map[string]any
	contexts    map[string]map[string]any
	processors  []EventProcessor
	span        *Span
	attachments []Attachment
	propagation PropagationContext
	session     *Session

	maxBreadcrumbs int
}

// NewScope returns an empty scope with the given breadcrumb cap and a fresh
// propagation context.
func NewScope(maxBreadcrumbs int) *Scope {
	if maxBreadcrumbs <= 0 {
		maxBreadcrumbs = defaultMaxBreadcrumbs
	}
	return &Scope{
		breadcrumbs:    newBreadcrumbRing(maxBreadcrumbs),
		tags:           make(map[string]string),
		extra:          make(map[string]any),
		contexts:       make(map[string]map[string]any),
		propagation:    newPropagationContext(),
		maxBreadcrumbs: maxBreadcrumbs,
	}
}

// Clone returns an independent copy of the scope. Collection fields are copied so the clone's own
// subsequent mutations are isolated (invariant 3, "scope isolation").
func (s *Scope) Clone() *Scope {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &Scope{
		fingerprint:    append([]string(nil), s.fingerprint...),
		transaction:    s.transaction,
		breadcrumbs:    s.breadcrumbs.clone(),
		tags:           make(map[string]string, len(s.tags)),
		extra:          make(map[string]any, len(s.extra)),
		contexts:       make(map[string]map[string]any, len(s.contexts)),
		processors:     append([]EventProcessor(nil), s.processors...),
		span:           s.span,
		attachments:    append([]Attachment(nil), s.attachments...),
		propagation:    s.propagation,
		session:        s.session,
		maxBreadcrumbs: s.maxBreadcrumbs,
	}
	if s.level != nil {
		lv := *s.level
		c.level = &lv
	}
	if s.user != nil {
		u := *s.user
		c.user = &u
	}
	for k, v := range s.tags {
		c.tags[k] = v
	}
	for k, v := range s.extra {
		c.extra[k] = v
	}
	for k, v := range s.contexts {
		inner := make(map[string]any, len(v))
		for ik, iv := range v {
			inner[ik] = iv
		}
		c.contexts[k] = inner
	}
	return c
}

// SetLevel overrides the level applied to events lacking one of their own.
func (s *Scope) SetLevel(level ext.Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.level = &level
}

// SetTransaction sets the transaction name applied to events.
func (s *Scope) SetTransaction(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transaction = name
}

// SetUser sets the user attached to events.
func (s *Scope) SetUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &u
}

// SetFingerprint overrides the grouping fingerprint.
func (s *Scope) SetFingerprint(fp []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fingerprint = fp
}

// SetTag upserts a tag.
func (s *Scope) SetTag(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags[key] = value
}

// RemoveTag erases a tag.
func (s *Scope) RemoveTag(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tags, key)
}

// SetContext upserts a named context map.
func (s *Scope) SetContext(key string, ctx map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts[key] = ctx
}

// SetExtra upserts an extra value.
func (s *Scope) SetExtra(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extra[key] = value
}

// RemoveExtra erases an extra value.
func (s *Scope) RemoveExtra(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.extra, key)
}

// AddBreadcrumb appends b, dropping the oldest entries past the cap.
func (s *Scope) AddBreadcrumb(b Breadcrumb) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breadcrumbs.add(b)
}

// ClearBreadcrumbs empties the breadcrumb ring.
func (s *Scope) ClearBreadcrumbs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breadcrumbs.clear()
}

// Clear restores the scope to its zero state, except for its propagation
// context (never rotated away from under an in-flight trace), its
// release-health session and its breadcrumb cap, which are kept.
func (s *Scope) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.level = nil
	s.fingerprint = nil
	s.transaction = ""
	s.breadcrumbs.clear()
	s.user = nil
	s.tags = make(map[string]string)
	s.extra = make(map[string]any)
	s.contexts = make(map[string]map[string]any)
	s.processors = nil
	s.span = nil
	s.attachments = nil
}

// AddEventProcessor appends fn to the list invoked, in insertion order,
// when an event is finalized.
func (s *Scope) AddEventProcessor(fn EventProcessor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processors = append(s.processors, fn)
}

// AddAttachment appends an attachment.
func (s *Scope) AddAttachment(a Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments = append(s.attachments, a)
}

// SetSpan replaces the scope's active span.
func (s *Scope) SetSpan(span *Span) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.span = span
}

// Span returns the scope's active span, or nil.
func (s *Scope) Span() *Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.span
}

// applyToEvent merges scope state into event, in a fixed contractual order.
// Returns nil if an event processor vetoed the event.
func (s *Scope) applyToEvent(event *Event) *Event {
	s.mu.Lock()
	breadcrumbs := s.breadcrumbs.slice()
	tags := make(map[string]string, len(s.tags))
	for k, v := range s.tags {
		tags[k] = v
	}
	extra := make(map[string]any, len(s.extra))
	for k, v := range s.extra {
		extra[k] = v
	}
	contexts := make(map[string]map[string]any, len(s.contexts))
	for k, v := range s.contexts {
		contexts[k] = v
	}
	var user *User
	if s.user != nil {
		u := *s.user
		user = &u
	}
	transaction := s.transaction
	var level *ext.Level
	if s.level != nil {
		lv := *s.level
		level = &lv
	}
	fingerprint := s.fingerprint
	attachments := append([]Attachment(nil), s.attachments...)
	span := s.span
	propagation := s.propagation
	processors := append([]EventProcessor(nil), s.processors...)
	maxBreadcrumbs := s.maxBreadcrumbs
	s.mu.Unlock()

	// 1. breadcrumbs: append scope's to event's, trim to the cap.
	combined := append(append([]Breadcrumb(nil), event.Breadcrumbs...), breadcrumbs...)
	if len(combined) > maxBreadcrumbs {
		combined = combined[len(combined)-maxBreadcrumbs:]
	}
	event.Breadcrumbs = combined

	// 2. merge tags/contexts/extras: scope only fills gaps.
	if event.Tags == nil {
		event.Tags = make(map[string]string)
	}
	for k, v := range tags {
		if _, ok := event.Tags[k]; !ok {
			event.Tags[k] = v
		}
	}
	if event.Contexts == nil {
		event.Contexts = make(map[string]map[string]any)
	}
	for k, v := range contexts {
		if _, ok := event.Contexts[k]; !ok {
			event.Contexts[k] = v
		}
	}
	if event.Extra == nil {
		event.Extra = make(map[string]any)
	}
	for k, v := range extra {
		if _, ok := event.Extra[k]; !ok {
			event.Extra[k] = v
		}
	}

	// 3. user.
	if event.User == nil {
		event.User = user
	}

	// 4. transaction name.
	if event.Transaction == "" && transaction != "" {
		event.Transaction = transaction
	}

	// 5. level.
	if level != nil {
		// only fill the gap: an event always carries a level (NewEvent
		// sets one), so this applies when the caller left it unset by
		// constructing the zero value directly.
		if event.Level == "" {
			event.Level = *level
		}
	}

	// 6. fingerprint.
	if event.Fingerprint == nil && fingerprint != nil {
		event.Fingerprint = fingerprint
	}

	// 7. attachments.
	_ = attachments // carried on the Scope for the envelope builder to read separately.

	// 8. trace context.
	if event.Trace == nil {
		if span != nil {
			sampled := span.Sampled()
			event.Trace = &TraceContext{
				TraceID:      span.TraceID(),
				SpanID:       span.SpanID(),
				ParentSpanID: span.parentSpanID,
				Op:           span.op,
				Status:       span.status,
				Sampled:      &sampled,
			}
		} else {
			event.Trace = &TraceContext{
				TraceID: propagation.TraceID,
				SpanID:  propagation.SpanID,
			}
		}
	}

	// 9. event processors, in insertion order; nil short-circuits.
	for _, p := range processors {
		event = p(event)
		if event == nil {
			return nil
		}
	}
	return event
}

// attachmentsSnapshot returns a copy of the scope's current attachments.
func (s *Scope) attachmentsSnapshot() []Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Attachment(nil), s.attachments...)
}

// userID returns the scope's current user identifier, used to seed a
// session's distinct_id, or "" if no user is set.
func (s *Scope) userID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return ""
	}
	if s.user.ID != "" {
		return s.user.ID
	}
	return s.user.Email
}

// setSession installs sess as the scope's active release-health session.
func (s *Scope) setSession(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = sess
}

// getSession returns the scope's active session, or nil.
func (s *Scope) getSession() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// propagationContext returns the scope's trace-without-transaction ids.
func (s *Scope) propagationContext() PropagationContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.propagation
}

const defaultMaxBreadcrumbs = 100
