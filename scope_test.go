// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/flarehq/flare-go/ext"
)

func TestScope_BreadcrumbTrim(t *testing.T) {
	s := NewScope(2)
	s.AddBreadcrumb(Breadcrumb{Message: "A", Timestamp: time.Now()})
	s.AddBreadcrumb(Breadcrumb{Message: "B", Timestamp: time.Now()})
	s.AddBreadcrumb(Breadcrumb{Message: "C", Timestamp: time.Now()})

	event := NewEvent(ext.LevelInfo)
	event = s.applyToEvent(event)

	assert.Len(t, event.Breadcrumbs, 2)
	assert.Equal(t, "B", event.Breadcrumbs[0].Message)
	assert.Equal(t, "C", event.Breadcrumbs[1].Message)
}

func TestScope_CloneIsolation(t *testing.T) {
	s1 := NewScope(10)
	s1.SetTag("shared", "one")

	s2 := s1.Clone()
	s2.SetTag("foo", "bar")
	s2.AddBreadcrumb(Breadcrumb{Message: "only-on-clone"})

	event1 := s1.applyToEvent(NewEvent(ext.LevelInfo))
	assert.NotContains(t, event1.Tags, "foo")
	assert.Empty(t, event1.Breadcrumbs)

	event2 := s2.applyToEvent(NewEvent(ext.LevelInfo))
	assert.Equal(t, "bar", event2.Tags["foo"])
	assert.Equal(t, "one", event2.Tags["shared"])
	assert.Len(t, event2.Breadcrumbs, 1)
}

func TestScope_ApplyToEvent_FillsGapsOnly(t *testing.T) {
	s := NewScope(10)
	s.SetUser(User{ID: "scope-user"})
	s.SetTransaction("scope-tx")
	s.SetTag("k", "scope-value")

	event := NewEvent(ext.LevelInfo)
	event.User = &User{ID: "event-user"}
	event.Tags["k"] = "event-value"

	event = s.applyToEvent(event)
	assert.Equal(t, "event-user", event.User.ID, "event value wins over scope")
	assert.Equal(t, "event-value", event.Tags["k"], "event value wins over scope")
	assert.Equal(t, "scope-tx", event.Transaction, "scope fills the gap")
}

func TestScope_EventProcessorDrop(t *testing.T) {
	s := NewScope(10)
	s.AddEventProcessor(func(e *Event) *Event { return nil })
	event := s.applyToEvent(NewEvent(ext.LevelInfo))
	assert.Nil(t, event)
}

func TestScope_TraceWithoutTransaction(t *testing.T) {
	s := NewScope(10)
	event := s.applyToEvent(NewEvent(ext.LevelInfo))
	assert.NotNil(t, event.Trace)
	assert.Equal(t, s.propagationContext().TraceID, event.Trace.TraceID)
	assert.Empty(t, event.Trace.ParentSpanID)
}
