// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_AppliesDefaults(t *testing.T) {
	cfg, err := newConfig(ClientOptions{DSN: "https://k@h/1"})
	require.NoError(t, err)

	assert.Equal(t, 1.0, cfg.sampleRate)
	assert.Equal(t, defaultMaxBreadcrumbs, cfg.maxBreadcrumbs)
	assert.Equal(t, 2*time.Second, cfg.shutdownTimeout)
	assert.Equal(t, SessionModeApplication, cfg.sessionMode)
	assert.Equal(t, 60*time.Second, cfg.sessionFlushInterval)
	assert.Equal(t, 5*time.Second, cfg.logsFlushInterval)
	assert.Equal(t, logsMaxBatchSizeDefault, cfg.logsMaxBatchSize)
}

func TestNewConfig_ExplicitOptionsOverrideDefaults(t *testing.T) {
	cfg, err := newConfig(ClientOptions{
		DSN:                  "https://k@h/1",
		SampleRate:           0.25,
		MaxBreadcrumbs:       10,
		ShutdownTimeout:      5 * time.Second,
		SessionMode:          SessionModeRequest,
		SessionFlushInterval: time.Minute,
		LogsFlushInterval:    time.Second,
		LogsMaxBatchSize:     50,
	})
	require.NoError(t, err)

	assert.Equal(t, 0.25, cfg.sampleRate)
	assert.Equal(t, 10, cfg.maxBreadcrumbs)
	assert.Equal(t, 5*time.Second, cfg.shutdownTimeout)
	assert.Equal(t, SessionModeRequest, cfg.sessionMode)
	assert.Equal(t, time.Minute, cfg.sessionFlushInterval)
	assert.Equal(t, time.Second, cfg.logsFlushInterval)
	assert.Equal(t, 50, cfg.logsMaxBatchSize)
}

func TestNewConfig_EmptyDSNYieldsNilDSNNoError(t *testing.T) {
	cfg, err := newConfig(ClientOptions{})
	require.NoError(t, err)
	assert.Nil(t, cfg.dsn)
}

func TestNewConfig_InvalidDSNReturnsError(t *testing.T) {
	_, err := newConfig(ClientOptions{DSN: "not-a-dsn"})
	assert.Error(t, err)
}

func TestNewConfig_SampleRateOutOfRangeFailsValidation(t *testing.T) {
	cases := []ClientOptions{
		{SampleRate: -0.1},
		{SampleRate: 1.1},
		{TracesSampleRate: -0.1},
		{TracesSampleRate: 1.1},
	}
	for _, opts := range cases {
		_, err := newConfig(opts)
		assert.Error(t, err)
	}
}

func TestNewConfig_EnvDefaultsFillUnsetFields(t *testing.T) {
	t.Setenv("FLARE_DSN", "https://k@h/1")
	t.Setenv("FLARE_RELEASE", "1.2.3")
	t.Setenv("FLARE_ENVIRONMENT", "staging")

	cfg, err := newConfig(ClientOptions{})
	require.NoError(t, err)

	require.NotNil(t, cfg.dsn)
	assert.Equal(t, "1.2.3", cfg.release)
	assert.Equal(t, "staging", cfg.environment)
}

func TestNewConfig_ExplicitOptionsWinOverEnv(t *testing.T) {
	t.Setenv("FLARE_RELEASE", "env-release")

	cfg, err := newConfig(ClientOptions{DSN: "https://k@h/1", Release: "explicit-release"})
	require.NoError(t, err)
	assert.Equal(t, "explicit-release", cfg.release)
}
