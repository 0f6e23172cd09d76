// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import "github.com/flarehq/flare-go/ext"

// startSession starts a fresh release-health session on scope and forwards
// its "init" update.
func (c *Client) startSession(scope *Scope) {
	if c.inert() {
		return
	}
	did := ""
	if scope != nil {
		if u := scope.userID(); u != "" {
			did = u
		}
	}
	sess := newSession(c.cfg.release, c.cfg.environment, did)
	scope.setSession(sess)
	if c.flusher != nil {
		c.flusher.enqueue(c.cfg.sessionMode, sess.snapshot())
	}
}

// endSession closes scope's active session with status and forwards its
// final update. A no-op if the scope carries no session.
func (c *Client) endSession(scope *Scope, status ext.SessionStatus) {
	sess := scope.getSession()
	if sess == nil {
		return
	}
	if !sess.close(status) {
		return
	}
	if c.inert() {
		return
	}
	if c.flusher != nil {
		c.flusher.enqueue(c.cfg.sessionMode, sess.snapshot())
	}
}

// markSessionErrored increments scope's active session's error tally. A
// session is reported via at most one init and one final update — the error
// tally rides along in the final snapshot rather than triggering its own
// send.
func (c *Client) markSessionErrored(scope *Scope) {
	sess := scope.getSession()
	if sess == nil {
		return
	}
	sess.addError()
}
