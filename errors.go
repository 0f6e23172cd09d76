// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"errors"
	"fmt"

	"github.com/flarehq/flare-go/ext"
)

// eventFromError walks err's Unwrap chain, producing one Exception per
// layer, outermost first.
func eventFromError(err error) *Event {
	event := NewEvent(ext.LevelError)
	if err == nil {
		return event
	}
	for cur := err; cur != nil; {
		event.Exceptions = append(event.Exceptions, Exception{
			Type:  fmt.Sprintf("%T", cur),
			Value: cur.Error(),
		})
		cur = errors.Unwrap(cur)
	}
	return event
}
