// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"sync"
)

// Option configures a ClientOptions value before it is passed to Init,
// following the functional-options pattern common to SDK entry points.
type Option func(*ClientOptions)

// WithDSN sets the target endpoint.
func WithDSN(dsn string) Option { return func(o *ClientOptions) { o.DSN = dsn } }

// WithRelease sets the default release reported on events lacking one.
func WithRelease(release string) Option { return func(o *ClientOptions) { o.Release = release } }

// WithEnvironment sets the default environment reported on events lacking one.
func WithEnvironment(env string) Option { return func(o *ClientOptions) { o.Environment = env } }

// WithSampleRate sets the event sampling probability.
func WithSampleRate(rate float64) Option { return func(o *ClientOptions) { o.SampleRate = rate } }

// WithTracesSampleRate sets the default transaction sampling probability.
func WithTracesSampleRate(rate float64) Option {
	return func(o *ClientOptions) { o.TracesSampleRate = rate }
}

// WithBeforeSend installs the final event transform.
func WithBeforeSend(fn BeforeSendFunc) Option { return func(o *ClientOptions) { o.BeforeSend = fn } }

// WithIntegrations appends integrations to those registered at construction.
func WithIntegrations(integrations ...Integration) Option {
	return func(o *ClientOptions) { o.Integrations = append(o.Integrations, integrations...) }
}

// WithTransport overrides the transport extension point.
func WithTransport(t Transport) Option { return func(o *ClientOptions) { o.Transport = t } }

// WithAutoSessionTracking enables the Application-mode session lifecycle.
func WithAutoSessionTracking() Option {
	return func(o *ClientOptions) { o.AutoSessionTracking = true }
}

// WithEnableLogs enables the structured-logs batcher.
func WithEnableLogs() Option { return func(o *ClientOptions) { o.EnableLogs = true } }

// Guard is returned by Init. Closing it runs Client.Close with the
// configured shutdown timeout, exactly once.
type Guard struct {
	client *Client
	once   sync.Once
}

// Close flushes and terminates the guarded client's background workers. It
// is safe to call multiple times; only the first call has effect.
func (g *Guard) Close() bool {
	ok := true
	g.once.Do(func() {
		ok = g.client.Close()
	})
	return ok
}

// Init builds a Client from opts, installs it as the process-wide current
// hub's client, and returns a Guard whose Close shuts the client down. A
// configuration error (bad DSN, invalid option) degrades to an inert client
// that logs once and accepts every call as a no-op rather than returning a
// client unsafe to use.
func Init(opts ...Option) (*Guard, error) {
	var co ClientOptions
	for _, o := range opts {
		o(&co)
	}
	// NewClient has already logged any configuration error.
	client, err := NewClient(co)

	hub := NewHub(client)
	setMainHub(hub)

	if client != nil && !client.inert() && client.cfg.autoSessionTracking &&
		client.cfg.sessionMode == SessionModeApplication {
		hub.StartSession()
	}

	return &Guard{client: client}, err
}
