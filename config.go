// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
)

// BodySize controls how much of a request body framework integrations may
// attach to an event.
type BodySize string

const (
	BodySizeNone   BodySize = "none"
	BodySizeSmall  BodySize = "small"
	BodySizeMedium BodySize = "medium"
	BodySizeAlways BodySize = "always"
)

// SessionMode selects release-health aggregation behavior.
type SessionMode string

const (
	SessionModeApplication SessionMode = "application"
	SessionModeRequest     SessionMode = "request"
)

// BeforeSendFunc is the final event transform; returning nil drops the
// event.
type BeforeSendFunc func(*Event) *Event

// BeforeBreadcrumbFunc transforms a breadcrumb before it's recorded;
// returning nil drops it, any non-nil return replaces it outright.
type BeforeBreadcrumbFunc func(Breadcrumb) *Breadcrumb

// TracesSamplerFunc overrides TracesSampleRate with a per-transaction
// probability.
type TracesSamplerFunc func(ctx TransactionContext) float64

// ClientOptions configures a Client. Construct via Init or NewClient; the
// zero value is valid and yields an inert client, since it carries no DSN
// (unless FLARE_DSN supplies one).
type ClientOptions struct {
	DSN string `validate:"omitempty"`

	SampleRate       float64 `validate:"gte=0,lte=1"`
	TracesSampleRate float64 `validate:"gte=0,lte=1"`
	TracesSampler    TracesSamplerFunc

	MaxBreadcrumbs int `validate:"gte=0"`

	AttachStacktrace bool
	SendDefaultPII   bool

	BeforeSend       BeforeSendFunc
	BeforeBreadcrumb BeforeBreadcrumbFunc

	Release     string
	Environment string

	MaxRequestBodySize BodySize

	ShutdownTimeout time.Duration `validate:"gte=0"`

	SessionMode         SessionMode
	AutoSessionTracking bool

	EnableLogs bool

	TrimBacktraces bool
	InAppInclude   []string
	InAppExclude   []string

	Integrations []Integration
	Transport    Transport

	// SessionFlushInterval and LogsFlushInterval are the session-flusher
	// and logs-batcher cadences, default 60s / 5s respectively when zero;
	// LogsMaxBatchSize defaults to 100 when zero.
	SessionFlushInterval time.Duration
	LogsFlushInterval    time.Duration
	LogsMaxBatchSize     int
}

func applyEnvDefaults(o *ClientOptions) {
	if o.DSN == "" {
		o.DSN = os.Getenv("FLARE_DSN")
	}
	if o.Release == "" {
		o.Release = os.Getenv("FLARE_RELEASE")
	}
	if o.Environment == "" {
		o.Environment = os.Getenv("FLARE_ENVIRONMENT")
	}
}

func applyDefaults(o *ClientOptions) {
	if o.SampleRate == 0 {
		o.SampleRate = 1
	}
	if o.MaxBreadcrumbs == 0 {
		o.MaxBreadcrumbs = defaultMaxBreadcrumbs
	}
	if o.ShutdownTimeout == 0 {
		o.ShutdownTimeout = 2 * time.Second
	}
	if o.SessionMode == "" {
		o.SessionMode = SessionModeApplication
	}
	if o.SessionFlushInterval == 0 {
		o.SessionFlushInterval = 60 * time.Second
	}
	if o.LogsFlushInterval == 0 {
		o.LogsFlushInterval = 5 * time.Second
	}
	if o.LogsMaxBatchSize == 0 {
		o.LogsMaxBatchSize = logsMaxBatchSizeDefault
	}
}

const logsMaxBatchSizeDefault = 100

var optionsValidator = validator.New()

// validate checks struct-tag constraints (sample rates in [0,1], etc.). A
// failure here is a configuration error: Init degrades to an inert client
// rather than returning a usable-looking one.
func (o *ClientOptions) validate() error {
	return optionsValidator.Struct(o)
}

// config is the fully resolved, immutable-once-installed configuration a
// Client carries alongside its transport and flushers.
type config struct {
	dsn                  *DSN
	sampleRate           float64
	tracesSampleRate     float64
	tracesSampler        TracesSamplerFunc
	maxBreadcrumbs       int
	attachStacktrace     bool
	sendDefaultPII       bool
	beforeSend           BeforeSendFunc
	beforeBreadcrumb     BeforeBreadcrumbFunc
	release              string
	environment          string
	maxRequestBodySize   BodySize
	shutdownTimeout      time.Duration
	sessionMode          SessionMode
	autoSessionTracking  bool
	enableLogs           bool
	trimBacktraces       bool
	inAppInclude         []string
	inAppExclude         []string
	integrations         []Integration
	transport            Transport
	sessionFlushInterval time.Duration
	logsFlushInterval    time.Duration
	logsMaxBatchSize     int
}

// newConfig resolves options into a config. A non-nil error means option
// validation failed or the DSN failed to parse; the caller (NewClient) is
// responsible for degrading to an inert client rather than propagating it
// as a hard failure to most APIs.
func newConfig(opts ClientOptions) (*config, error) {
	applyEnvDefaults(&opts)
	applyDefaults(&opts)
	if err := opts.validate(); err != nil {
		return nil, err
	}
	cfg := &config{
		sampleRate:           opts.SampleRate,
		tracesSampleRate:     opts.TracesSampleRate,
		tracesSampler:        opts.TracesSampler,
		maxBreadcrumbs:       opts.MaxBreadcrumbs,
		attachStacktrace:     opts.AttachStacktrace,
		sendDefaultPII:       opts.SendDefaultPII,
		beforeSend:           opts.BeforeSend,
		beforeBreadcrumb:     opts.BeforeBreadcrumb,
		release:              opts.Release,
		environment:          opts.Environment,
		maxRequestBodySize:   opts.MaxRequestBodySize,
		shutdownTimeout:      opts.ShutdownTimeout,
		sessionMode:          opts.SessionMode,
		autoSessionTracking:  opts.AutoSessionTracking,
		enableLogs:           opts.EnableLogs,
		trimBacktraces:       opts.TrimBacktraces,
		inAppInclude:         opts.InAppInclude,
		inAppExclude:         opts.InAppExclude,
		integrations:         opts.Integrations,
		transport:            opts.Transport,
		sessionFlushInterval: opts.SessionFlushInterval,
		logsFlushInterval:    opts.LogsFlushInterval,
		logsMaxBatchSize:     opts.LogsMaxBatchSize,
	}
	if opts.DSN != "" {
		dsn, err := ParseDSN(opts.DSN)
		if err != nil {
			return nil, err
		}
		cfg.dsn = dsn
	}
	return cfg, nil
}
