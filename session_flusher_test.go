// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarehq/flare-go/ext"
)

func newTestClientWithFakeTransport() (*Client, *fakeTransport) {
	ft := &fakeTransport{}
	cfg, _ := newConfig(ClientOptions{DSN: "https://k@h/1"})
	cfg.transport = ft
	return &Client{cfg: cfg, outcomes: newOutcomes()}, ft
}

func TestSessionFlusher_ApplicationModeForwardsImmediately(t *testing.T) {
	client, ft := newTestClientWithFakeTransport()
	f := newSessionFlusher(client, time.Hour)
	defer f.shutdown(time.Second)

	sess := newSession("1.0.0", "prod", "d1")
	sess.close(ext.SessionStatusExited)
	f.enqueue(SessionModeApplication, sess.snapshot())

	require.True(t, f.flush(time.Second))
	assert.Len(t, ft.envelopes(), 1)
}

func TestSessionFlusher_RequestModeAggregatesByMinute(t *testing.T) {
	client, ft := newTestClientWithFakeTransport()
	f := newSessionFlusher(client, time.Hour)
	defer f.shutdown(time.Second)

	for i := 0; i < 3; i++ {
		sess := newSession("1.0.0", "prod", "d1")
		sess.close(ext.SessionStatusExited)
		f.enqueue(SessionModeRequest, sess.snapshot())
	}
	sess := newSession("1.0.0", "prod", "d1")
	sess.addError()
	sess.close(ext.SessionStatusExited)
	f.enqueue(SessionModeRequest, sess.snapshot())

	require.True(t, f.flush(time.Second))
	envs := ft.envelopes()
	require.Len(t, envs, 1, "request mode ships one aggregate envelope per flush")
	require.Len(t, envs[0].Items, 1, "all pending buckets ship in a single sessions item")
}

func TestSessionFlusher_RequestModeMultipleGroupsStayOneItem(t *testing.T) {
	client, ft := newTestClientWithFakeTransport()
	f := newSessionFlusher(client, time.Hour)
	defer f.shutdown(time.Second)

	combos := [][2]string{
		{"1.0.0", "prod"},
		{"1.0.0", "staging"},
		{"2.0.0", "prod"},
	}
	for _, c := range combos {
		sess := newSession(c[0], c[1], "d1")
		sess.close(ext.SessionStatusExited)
		f.enqueue(SessionModeRequest, sess.snapshot())
	}

	require.True(t, f.flush(time.Second))
	envs := ft.envelopes()
	require.Len(t, envs, 1, "request mode ships one aggregate envelope per flush regardless of group count")
	require.Len(t, envs[0].Items, 1, "every pending release/environment group nests inside a single sessions item")
	assert.Equal(t, ext.CategorySessions, envs[0].Items[0].Type)
}

func TestSessionFlusher_FlushDrainsPendingBeforeAck(t *testing.T) {
	client, ft := newTestClientWithFakeTransport()
	f := newSessionFlusher(client, time.Hour)
	defer f.shutdown(time.Second)

	sess := newSession("1.0.0", "prod", "d1")
	sess.close(ext.SessionStatusExited)
	f.enqueue(SessionModeApplication, sess.snapshot())
	f.enqueue(SessionModeApplication, sess.snapshot())

	require.True(t, f.flush(time.Second))
	assert.Len(t, ft.envelopes(), 2)
}

func TestSessionFlusher_ShutdownIsIdempotent(t *testing.T) {
	client, _ := newTestClientWithFakeTransport()
	f := newSessionFlusher(client, time.Hour)
	assert.True(t, f.shutdown(time.Second))
	assert.True(t, f.shutdown(time.Second))
}
