// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	flare "github.com/flarehq/flare-go"
	"github.com/flarehq/flare-go/ext"
	"github.com/flarehq/flare-go/flaretest"
)

func TestInit_InstallsMainHubAndCaptures(t *testing.T) {
	tr := flaretest.NewTransport()
	guard, err := flare.Init(
		flare.WithDSN("https://key@host/1"),
		flare.WithTransport(tr),
		flare.WithRelease("1.2.3"),
	)
	require.NoError(t, err)
	defer guard.Close()

	flare.CurrentHub().CaptureMessage("booted", ext.LevelInfo)
	require.True(t, flare.CurrentHub().Client().Flush(0))
	assert.Equal(t, 1, tr.Count())
}

func TestInit_BadDSNDegradesToInertGuard(t *testing.T) {
	guard, err := flare.Init(flare.WithDSN("not-a-dsn"))
	assert.Error(t, err)
	require.NotNil(t, guard)
	// an inert guard must still be safe to close.
	assert.True(t, guard.Close())
}

func TestInit_GuardCloseIsIdempotent(t *testing.T) {
	tr := flaretest.NewTransport()
	guard, err := flare.Init(flare.WithDSN("https://key@host/1"), flare.WithTransport(tr))
	require.NoError(t, err)
	assert.True(t, guard.Close())
	assert.True(t, guard.Close())
}
