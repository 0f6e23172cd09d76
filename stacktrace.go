// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"bytes"
	"runtime"
	"strings"

	"github.com/DataDog/gostackparse"
)

// captureStacktrace dumps the calling goroutine's stack and parses it into
// Frames via gostackparse. This is deliberately shallow — function name,
// file, and line only, no debug-image or source resolution — consistent
// with symbolication being an explicit non-goal.
func captureStacktrace() []Frame {
	buf := make([]byte, 16*1024)
	n := runtime.Stack(buf, false)
	goroutines, _ := gostackparse.Parse(bytes.NewReader(buf[:n]))
	if len(goroutines) == 0 {
		return nil
	}
	frames := make([]Frame, 0, len(goroutines[0].Stack))
	for _, f := range goroutines[0].Stack {
		if isInternalFrame(f.Func) {
			continue
		}
		frames = append(frames, Frame{
			Function: f.Func,
			File:     f.File,
			Line:     f.Line,
		})
	}
	return frames
}

// isInternalFrame filters out flare-go's own capture machinery so the
// recorded stack starts at the caller's code.
func isInternalFrame(fn string) bool {
	return strings.Contains(fn, "flare-go.captureStacktrace") ||
		strings.Contains(fn, "flare-go.NewEvent") ||
		strings.HasPrefix(fn, "runtime.")
}

// applyInAppFilters trims frames outside user code when TrimBacktraces is
// set, using glob-style include/exclude lists.
func applyInAppFilters(frames []Frame, include, exclude []string, trim bool) []Frame {
	if !trim || len(frames) == 0 {
		return frames
	}
	out := frames[:0:0]
	for _, f := range frames {
		if matchesAny(f.Function, exclude) {
			continue
		}
		if len(include) == 0 || matchesAny(f.Function, include) {
			out = append(out, f)
		}
	}
	return out
}

func matchesAny(name string, globs []string) bool {
	for _, g := range globs {
		if globMatch(g, name) {
			return true
		}
	}
	return false
}

// globMatch supports a single trailing "*" wildcard, the common case for
// package-prefix in_app globs (e.g. "github.com/acme/*").
func globMatch(glob, name string) bool {
	if strings.HasSuffix(glob, "*") {
		return strings.HasPrefix(name, strings.TrimSuffix(glob, "*"))
	}
	return glob == name
}
