// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

// Integration is a capability object registered at client construction:
// Setup runs once, and ProcessEvent runs per event in registration order.
// Returning nil from ProcessEvent drops the event.
type Integration interface {
	Name() string
	Setup(*ClientOptions)
	ProcessEvent(event *Event, opts *ClientOptions) *Event
}
