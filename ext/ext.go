// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

// Package ext holds string constants shared across the flare SDK: severity
// levels, envelope item categories and well-known span operations. Keeping
// them in one leaf package lets both the engine and SDK consumers reference
// the same literals without import cycles.
package ext

// Level is the severity of an Event or Breadcrumb.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelFatal   Level = "fatal"
)

// Category identifies the kind of payload an envelope item carries, and is
// the unit rate limits are applied to.
type Category string

const (
	CategoryEvent       Category = "event"
	CategoryTransaction Category = "transaction"
	CategorySession     Category = "session"
	// CategorySessions is the wire type for a Request-mode flush: one item
	// nesting every pending (release, environment) aggregate group, as
	// opposed to CategorySession's single Application-mode update. It
	// shares CategorySession's rate-limit bucket — the protocol has no
	// separate limit category for aggregates.
	CategorySessions   Category = "sessions"
	CategoryAttachment Category = "attachment"
	CategoryLogItem    Category = "log_item"
	CategoryCheckIn    Category = "check_in"
	// CategoryAll is the catch-all bucket a blanket rate-limit directive
	// (no categories listed) or a bare Retry-After applies to.
	CategoryAll Category = "all"
)

// Common span operations, used as free-form hints rather than an exhaustive
// enum — op is an arbitrary string in the protocol.
const (
	OpHTTPClient   = "http.client"
	OpHTTPServer   = "http.server"
	OpDBQuery      = "db.query"
	OpFunction     = "function"
	OpSerialize    = "serialize"
	OpMiddlewareNA = "middleware"
)

// SessionStatus is the lifecycle state of a release-health Session.
type SessionStatus string

const (
	SessionStatusOK       SessionStatus = "ok"
	SessionStatusExited   SessionStatus = "exited"
	SessionStatusCrashed  SessionStatus = "crashed"
	SessionStatusAbnormal SessionStatus = "abnormal"
)

// SpanStatus mirrors common tracing outcome states attached to spans and
// transactions.
type SpanStatus string

const (
	SpanStatusUndefined SpanStatus = ""
	SpanStatusOK        SpanStatus = "ok"
	SpanStatusError     SpanStatus = "internal_error"
	SpanStatusCancelled SpanStatus = "cancelled"
)
