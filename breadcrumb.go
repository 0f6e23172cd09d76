// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"time"

	queue "github.com/eapache/queue/v2"

	"github.com/flarehq/flare-go/ext"
)

// Breadcrumb is a time-ordered, capped log-like record attached to events.
type Breadcrumb struct {
	Timestamp time.Time
	Category  string
	Level     ext.Level
	Message   string
	Data      map[string]any
}

// breadcrumbRing is a FIFO of bounded capacity. It backs Scope's breadcrumb
// list; pushes beyond the cap drop from the front, never the back.
//
// Built on eapache/queue's ring buffer so push/trim is O(1) amortized
// instead of repeated slice reallocation.
type breadcrumbRing struct {
	cap int
	q   *queue.Queue[Breadcrumb]
}

func newBreadcrumbRing(cap int) *breadcrumbRing {
	if cap < 0 {
		cap = 0
	}
	return &breadcrumbRing{cap: cap, q: queue.New[Breadcrumb]()}
}

// clone returns an independent copy: mutating the clone never affects the
// original.
func (r *breadcrumbRing) clone() *breadcrumbRing {
	nq := queue.New[Breadcrumb]()
	for i := 0; i < r.q.Length(); i++ {
		nq.Add(r.q.Get(i))
	}
	return &breadcrumbRing{cap: r.cap, q: nq}
}

func (r *breadcrumbRing) add(b Breadcrumb) {
	if r.cap == 0 {
		return
	}
	r.q.Add(b)
	for r.q.Length() > r.cap {
		r.q.Remove()
	}
}

func (r *breadcrumbRing) clear() {
	for r.q.Length() > 0 {
		r.q.Remove()
	}
}

// slice returns the retained breadcrumbs oldest-first.
func (r *breadcrumbRing) slice() []Breadcrumb {
	out := make([]Breadcrumb, r.q.Length())
	for i := range out {
		out[i] = r.q.Get(i)
	}
	return out
}

func (r *breadcrumbRing) len() int { return r.q.Length() }
