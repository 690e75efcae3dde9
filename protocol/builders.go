package protocol

import (
	"errors"
	"fmt"
)

// NewExceptionEvent builds an Event from a Go error, unwrapping the chain
// with errors.Unwrap so the outermost error is recorded first and the
// innermost cause last, the order a reader expects when scanning top-down
// from "what the host application saw" down to "what actually went wrong".
func NewExceptionEvent(err error, sdk SdkInfo) Event {
	var exceptions []Exception
	for e := err; e != nil; e = errors.Unwrap(e) {
		exceptions = append(exceptions, Exception{
			Type:  fmt.Sprintf("%T", e),
			Value: e.Error(),
		})
	}
	return Event{
		EventID:    NewEventID(),
		Level:      LevelError,
		Exceptions: exceptions,
		Sdk:        sdk,
	}
}

// NewMessageEvent builds an Event carrying a free-form message at the given
// level.
func NewMessageEvent(formatted string, level Level, sdk SdkInfo) Event {
	return Event{
		EventID: NewEventID(),
		Level:   level,
		Message: &Message{Formatted: formatted, Level: level},
		Sdk:     sdk,
	}
}
