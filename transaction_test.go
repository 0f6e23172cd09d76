// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarehq/flare-go/ext"
)

func TestTransaction_ChildSpanSharesTraceAndSampling(t *testing.T) {
	cfg, err := newConfig(ClientOptions{DSN: "https://k@h/1", TracesSampleRate: 1})
	require.NoError(t, err)
	cfg.transport = NoopTransport{}
	client := &Client{cfg: cfg, outcomes: newOutcomes()}

	tx := startTransaction(client, NewTransactionContext("op", "http.server"))
	require.True(t, tx.Sampled(), "sample rate of 1 always samples")

	child := tx.StartChild("db.query", "select 1")
	assert.Equal(t, tx.TraceID(), child.TraceID())
	assert.True(t, child.Sampled(), "invariant 10: child shares transaction's sampled flag")

	grandchild := child.StartChild("db.row", "scan")
	assert.Equal(t, tx.TraceID(), grandchild.TraceID())
}

func TestTransaction_FinishIsIdempotent(t *testing.T) {
	cfg, err := newConfig(ClientOptions{DSN: "https://k@h/1", TracesSampleRate: 1})
	require.NoError(t, err)
	cfg.transport = NoopTransport{}
	client := &Client{cfg: cfg, outcomes: newOutcomes()}

	tx := startTransaction(client, NewTransactionContext("op", "http.server"))
	tx.Finish()
	tx.Finish() // must not panic or double-append

	assert.Len(t, tx.inner.spans, 0)
}

func TestTransaction_StartChildAfterFinishReturnsNoop(t *testing.T) {
	cfg, err := newConfig(ClientOptions{DSN: "https://k@h/1", TracesSampleRate: 1})
	require.NoError(t, err)
	cfg.transport = NoopTransport{}
	client := &Client{cfg: cfg, outcomes: newOutcomes()}

	tx := startTransaction(client, NewTransactionContext("op", "http.server"))
	tx.Finish()

	child := tx.StartChild("late", "too late")
	assert.Same(t, noopSpanSentinel, child, "finished transaction rejects further start_child")

	// noop span operations must not panic either.
	child.SetTag("a", "b").SetData("c", 1).SetStatus(ext.SpanStatusOK)
	child.Finish()
}

func TestTransaction_IterHeaders_RoundTrip(t *testing.T) {
	cfg, err := newConfig(ClientOptions{DSN: "https://k@h/1", TracesSampleRate: 1})
	require.NoError(t, err)
	client := &Client{cfg: cfg}

	tx := startTransaction(client, NewTransactionContext("op", "http.server"))
	headers := tx.IterHeaders()

	ctx2 := ContinueFromHeaders("op", "http.server", headers)
	assert.Equal(t, tx.TraceID(), ctx2.TraceID)
	assert.Equal(t, tx.SpanID(), ctx2.ParentSpanID)
	require.NotNil(t, ctx2.parentSampled)
	assert.Equal(t, tx.Sampled(), *ctx2.parentSampled, "invariant 11: trace propagation round-trip carries the sampling decision")
}

func TestTransaction_ContinueFromHeaders_MissingHeaderStartsFresh(t *testing.T) {
	ctx := ContinueFromHeaders("name", "op", map[string]string{})
	assert.Len(t, ctx.TraceID, 32)
	assert.Empty(t, ctx.ParentSpanID)
	assert.Nil(t, ctx.parentSampled)
}

func TestTransaction_DecideSampled_ParentOverridesLocalRate(t *testing.T) {
	cfg, err := newConfig(ClientOptions{DSN: "https://k@h/1", TracesSampleRate: 0})
	require.NoError(t, err)

	sampled := true
	ctx := TransactionContext{Name: "n", Op: "op", TraceID: randomHex(16)}
	ctx.parentSampled = &sampled
	assert.True(t, decideSampled(cfg, ctx), "propagated sampling decision wins over the local rate")
}
