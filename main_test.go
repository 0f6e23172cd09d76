// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain checks that no background worker goroutine (transport, session
// flusher, logs batcher) survives past the end of the package's test run.
// Every test that starts one must Shutdown or Close its client/transport.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
