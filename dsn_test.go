// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDSN_RoundTrip(t *testing.T) {
	cases := []string{
		"https://k@h/1",
		"https://k:s@h.example.com:9000/proj",
		"http://public@sentry.example.org/prefix/path/42",
	}
	for _, raw := range cases {
		dsn, err := ParseDSN(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, raw, dsn.String(), "invariant 6: DSN round-trip")
	}
}

func TestParseDSN_Errors(t *testing.T) {
	cases := map[string]string{
		"":                       "empty",
		"k@h/1":                  "missing scheme",
		"https://h/1":            "missing public key",
		"https://k@h:abc/1":      "invalid port",
		"https://k@h":            "missing project id",
		"https://k@h/":           "missing project id",
	}
	for raw, desc := range cases {
		_, err := ParseDSN(raw)
		assert.Error(t, err, desc)
	}
}

func TestDSN_EnvelopeURL(t *testing.T) {
	dsn, err := ParseDSN("https://key@host:9000/prefix/7")
	require.NoError(t, err)
	assert.Equal(t, "https://host:9000/prefix/api/7/envelope/", dsn.EnvelopeURL())
}

func TestDSN_AuthHeader(t *testing.T) {
	dsn, err := ParseDSN("https://key@host/1")
	require.NoError(t, err)
	h := dsn.AuthHeader(1700000000)
	assert.Contains(t, h, "flare_version=7")
	assert.Contains(t, h, "flare_key=key")
	assert.Contains(t, h, "flare_timestamp=1700000000")
}
