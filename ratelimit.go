// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/flarehq/flare-go/ext"
	"github.com/flarehq/flare-go/internal/log"
)

// rateLimiter tracks, per category, the earliest time at which the
// category may be sent again. Accessed
// only by the transport worker.
type rateLimiter struct {
	mu    sync.Mutex
	until map[ext.Category]time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{until: make(map[ext.Category]time.Time)}
}

// rateLimitBucket maps a wire category onto the category whose limit state
// governs it. CategorySessions (Request-mode aggregate flushes) has no
// limit bucket of its own in the protocol and shares CategorySession's.
func rateLimitBucket(c ext.Category) ext.Category {
	if c == ext.CategorySessions {
		return ext.CategorySession
	}
	return c
}

func (r *rateLimiter) limitedUntil(c ext.Category, now time.Time) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.until[ext.CategoryAll]; ok && now.Before(t) {
		return t, true
	}
	if t, ok := r.until[rateLimitBucket(c)]; ok && now.Before(t) {
		return t, true
	}
	return time.Time{}, false
}

func (r *rateLimiter) update(c ext.Category, until time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.until[c]; !ok || until.After(cur) {
		r.until[c] = until
		log.Warn("rate limited category=%s until=%s", c, until.Format(time.RFC3339))
	}
}

// applyHeaders parses an X-Flare-Rate-Limits response header (and, as a
// fallback, Retry-After on 429/503) updating the limiter state.
func (r *rateLimiter) applyHeaders(headerValue string, retryAfter string, status int, now time.Time) {
	if headerValue != "" {
		for _, directive := range strings.Split(headerValue, ",") {
			directive = strings.TrimSpace(directive)
			if directive == "" {
				continue
			}
			fields := strings.Split(directive, ":")
			if len(fields) < 2 {
				continue
			}
			secs, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
			if err != nil {
				continue
			}
			until := now.Add(time.Duration(secs * float64(time.Second)))
			cats := strings.TrimSpace(fields[1])
			if cats == "" {
				r.update(ext.CategoryAll, until)
				continue
			}
			for _, c := range strings.Split(cats, ";") {
				c = strings.TrimSpace(c)
				if c != "" {
					r.update(ext.Category(c), until)
				}
			}
		}
		return
	}
	if (status == 429 || status == 503) && retryAfter != "" {
		if secs, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil {
			r.update(ext.CategoryAll, now.Add(time.Duration(secs)*time.Second))
		}
	}
}

// filter strips any item whose category is currently limited. Returns nil
// if every item was stripped, matching "fully-limited envelopes are
// dropped silently".
func (r *rateLimiter) filter(e *Envelope, now time.Time, onDrop func(ext.Category)) *Envelope {
	kept := e.Items[:0:0]
	for _, item := range e.Items {
		if _, limited := r.limitedUntil(item.Type, now); limited {
			if onDrop != nil {
				onDrop(item.Type)
			}
			continue
		}
		kept = append(kept, item)
	}
	if len(kept) == 0 {
		return nil
	}
	return &Envelope{Header: e.Header, Items: kept}
}
