// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flarehq/flare-go/ext"
)

// Session tracks one release-health session: a started-to-ended window
// that moves Ok -> Errored (internally, on the first recorded error) ->
// a terminal status. The terminal status is whatever the closer asked
// for: Exited for a clean shutdown, Crashed only for an explicit
// unhandled-panic report, Abnormal for an explicit abrupt-termination
// report. Having recorded an error never by itself promotes a clean
// Exited close to Crashed — errored is a tally, not an override. A
// session transitions out of Ok exactly once; further errors within the
// same window only increment the error count.
type Session struct {
	mu sync.Mutex

	id          string
	did         string
	started     time.Time
	status      ext.SessionStatus
	errored     bool
	errors      int
	release     string
	environment string
	sequence    int
	duration    time.Duration
	terminal    bool
}

// newSession starts a fresh session in the OK status.
func newSession(release, environment, did string) *Session {
	return &Session{
		id:          uuid.New().String(),
		did:         did,
		started:     time.Now(),
		status:      ext.SessionStatusOK,
		release:     release,
		environment: environment,
	}
}

// addError increments the session's error tally and marks it Errored
// internally. This is a tally only: it never promotes the eventual
// terminal status by itself. Crashed is reserved for an explicit
// unhandled-panic report (a caller invoking
// EndSessionWithStatus(ext.SessionStatusCrashed), typically from a
// recover()); a session that records errors and is then closed cleanly
// via EndSession() still reports Exited.
func (s *Session) addError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors++
	s.errored = true
}

// close finalizes the session with exactly the status the caller asked
// for, unless it is already terminal (idempotent — a session is only
// ever closed once).
func (s *Session) close(status ext.SessionStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminal {
		return false
	}
	s.terminal = true
	s.duration = time.Since(s.started)
	s.status = status
	return true
}

// snapshot returns the wire-ready fields of the session at its current
// sequence, incrementing the sequence for the next update.
func (s *Session) snapshot() sessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := sessionSnapshot{
		ID:          s.id,
		DID:         s.did,
		Started:     s.started,
		Status:      s.status,
		Errors:      s.errors,
		Release:     s.release,
		Environment: s.environment,
		Sequence:    s.sequence,
		Duration:    s.duration,
		Terminal:    s.terminal,
	}
	s.sequence++
	return snap
}

// sessionSnapshot is the immutable view of a Session handed to the
// flusher/envelope builder, decoupled from the live, mutex-guarded
// Session so aggregation never races against further errors.
type sessionSnapshot struct {
	ID          string
	DID         string
	Started     time.Time
	Status      ext.SessionStatus
	Errors      int
	Release     string
	Environment string
	Sequence    int
	Duration    time.Duration
	Terminal    bool
}
