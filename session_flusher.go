// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/flarehq/flare-go/ext"
	"github.com/flarehq/flare-go/internal/log"
)

// sessionUpdate is one unit of work handed to the flusher: a session
// snapshot plus the mode that decides whether it is forwarded immediately
// or aggregated.
type sessionUpdate struct {
	mode SessionMode
	snap sessionSnapshot
}

// sessionBucketKey is the Request-mode aggregation key: release,
// environment, distinct_id and the started_at minute bucket.
type sessionBucketKey struct {
	release     string
	environment string
	did         string
	minute      time.Time
}

// sessionFlusher is the background worker backing release-health sessions:
// it accepts sessionUpdate values over a channel and either forwards them
// immediately (Application mode) or accumulates them into per-minute
// buckets flushed on a cadence (Request mode). A single flusher serves
// both modes so the client doesn't need a second worker goroutine.
type sessionFlusher struct {
	client        *Client
	flushInterval time.Duration

	updates chan sessionUpdate
	flushReq chan chan struct{}
	done    chan struct{}
	drained chan struct{}

	closed       atomic.Bool
	shutdownOnce sync.Once

	mu      sync.Mutex
	buckets map[sessionBucketKey]*sessionAggregateRow
}

func newSessionFlusher(client *Client, flushInterval time.Duration) *sessionFlusher {
	if flushInterval <= 0 {
		flushInterval = 60 * time.Second
	}
	f := &sessionFlusher{
		client:        client,
		flushInterval: flushInterval,
		updates:       make(chan sessionUpdate, 256),
		flushReq:      make(chan chan struct{}),
		done:          make(chan struct{}),
		drained:       make(chan struct{}),
		buckets:       make(map[sessionBucketKey]*sessionAggregateRow),
	}
	go f.run()
	return f
}

// enqueue submits a session update without blocking the caller; a full
// queue drops the update and logs a warning.
func (f *sessionFlusher) enqueue(mode SessionMode, snap sessionSnapshot) {
	if f.closed.Load() {
		return
	}
	select {
	case f.updates <- sessionUpdate{mode: mode, snap: snap}:
	default:
		log.Warn("session flusher queue full, dropping update")
	}
}

func (f *sessionFlusher) run() {
	ticker := time.NewTicker(f.flushInterval)
	defer ticker.Stop()
	defer close(f.drained)
	for {
		select {
		case u := <-f.updates:
			f.apply(u)
		case <-ticker.C:
			f.flushBuckets()
		case ack := <-f.flushReq:
			f.drainPending()
			f.flushBuckets()
			close(ack)
		case <-f.done:
			f.drainPending()
			f.flushBuckets()
			return
		}
	}
}

func (f *sessionFlusher) drainPending() {
	for {
		select {
		case u := <-f.updates:
			f.apply(u)
		default:
			return
		}
	}
}

func (f *sessionFlusher) apply(u sessionUpdate) {
	if u.mode != SessionModeRequest {
		env, err := buildSessionEnvelope(u.snap)
		if err != nil {
			log.Error("flare: encoding session: %v", err)
			return
		}
		f.client.cfg.transport.SendEnvelope(env)
		return
	}

	minute := u.snap.Started.UTC().Truncate(time.Minute)
	key := sessionBucketKey{release: u.snap.Release, environment: u.snap.Environment, did: u.snap.DID, minute: minute}
	f.mu.Lock()
	row, ok := f.buckets[key]
	if !ok {
		row = &sessionAggregateRow{StartedMinute: minute, Release: u.snap.Release, Environment: u.snap.Environment}
		f.buckets[key] = row
	}
	switch u.snap.Status {
	case ext.SessionStatusExited:
		row.Exited++
	case ext.SessionStatusCrashed:
		row.Crashed++
	case ext.SessionStatusAbnormal:
		row.Abnormal++
	}
	if u.snap.Errors > 0 {
		row.Errored++
	}
	f.mu.Unlock()
}

func (f *sessionFlusher) flushBuckets() {
	f.mu.Lock()
	if len(f.buckets) == 0 {
		f.mu.Unlock()
		return
	}
	rows := make([]sessionAggregateRow, 0, len(f.buckets))
	for _, r := range f.buckets {
		rows = append(rows, *r)
	}
	f.buckets = make(map[sessionBucketKey]*sessionAggregateRow)
	f.mu.Unlock()

	env, err := buildSessionAggregatesEnvelope(rows)
	if err != nil {
		log.Error("flare: encoding session aggregates: %v", err)
		return
	}
	f.client.cfg.transport.SendEnvelope(env)
}

// flush requests an immediate bucket flush and waits for it to complete,
// draining any updates queued up to that point.
func (f *sessionFlusher) flush(deadline time.Duration) bool {
	if f.closed.Load() {
		return true
	}
	ack := make(chan struct{})
	timer := time.NewTimer(deadline)
	defer timer.Stop()
	select {
	case f.flushReq <- ack:
	case <-f.done:
		return true
	case <-timer.C:
		return false
	}
	select {
	case <-ack:
		return true
	case <-timer.C:
		return false
	}
}

// shutdown flushes and terminates the worker; idempotent.
func (f *sessionFlusher) shutdown(deadline time.Duration) bool {
	ok := f.flush(deadline)
	f.shutdownOnce.Do(func() {
		f.closed.Store(true)
		close(f.done)
		<-f.drained
	})
	return ok
}
