// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flarehq/flare-go/ext"
)

func TestSession_CleanExitStaysExited(t *testing.T) {
	s := newSession("1.0.0", "prod", "device-1")
	ok := s.close(ext.SessionStatusExited)
	assert.True(t, ok)
	assert.Equal(t, ext.SessionStatusExited, s.snapshot().Status)
}

func TestSession_ErroredExitStaysExited(t *testing.T) {
	s := newSession("1.0.0", "prod", "device-1")
	s.addError()
	s.close(ext.SessionStatusExited)
	snap := s.snapshot()
	assert.Equal(t, ext.SessionStatusExited, snap.Status, "an error tally never promotes a clean close to Crashed")
	assert.Equal(t, 1, snap.Errors)
}

func TestSession_ExplicitCrashReportIsHonored(t *testing.T) {
	s := newSession("1.0.0", "prod", "device-1")
	s.addError()
	s.close(ext.SessionStatusCrashed)
	snap := s.snapshot()
	assert.Equal(t, ext.SessionStatusCrashed, snap.Status, "Crashed is reached only via an explicit crash report")
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	s := newSession("1.0.0", "prod", "device-1")
	assert.True(t, s.close(ext.SessionStatusExited))
	assert.False(t, s.close(ext.SessionStatusCrashed), "a session transitions out of OK exactly once")
	assert.Equal(t, ext.SessionStatusExited, s.snapshot().Status)
}

func TestSession_SnapshotIncrementsSequence(t *testing.T) {
	s := newSession("1.0.0", "prod", "device-1")
	first := s.snapshot()
	second := s.snapshot()
	assert.Equal(t, 0, first.Sequence)
	assert.Equal(t, 1, second.Sequence)
}
