package transport

import (
	"context"
	"strings"

	"github.com/nimbusobs/nimbus-go/protocol"
)

// FanoutTransport composes a primary delivery transport with two optional
// side collaborators: a dedupe cache consulted before anything is sent, and
// a development stream that receives a best-effort copy of every event that
// clears dedupe and that the primary transport delivered. Neither
// collaborator can turn a deliverable event into an error for the primary
// transport — dedupe only ever suppresses (a failed dedupe lookup sends the
// event anyway), and the result of the stream's Send is discarded.
type FanoutTransport struct {
	primary Transport
	stream  *StreamTransport
	dedupe  *RedisDedupeCache
}

// NewFanoutTransport builds a FanoutTransport around primary. stream and
// dedupe may each be nil to disable that collaborator.
func NewFanoutTransport(primary Transport, stream *StreamTransport, dedupe *RedisDedupeCache) *FanoutTransport {
	return &FanoutTransport{primary: primary, stream: stream, dedupe: dedupe}
}

func (f *FanoutTransport) Send(ctx context.Context, ev protocol.Event) error {
	if f.dedupe != nil {
		if key := dedupeKey(ev); key != "" {
			suppress, err := f.dedupe.ShouldSuppress(ctx, key)
			if err == nil && suppress {
				return nil
			}
		}
	}

	if err := f.primary.Send(ctx, ev); err != nil {
		return err
	}

	if f.stream != nil {
		_ = f.stream.Send(ctx, ev)
	}
	return nil
}

// dedupeKey derives a fingerprint for ev, falling back to the exception
// type/value or message text when the caller left Fingerprint unset. An
// event with none of these yields "" and is never suppressed.
func dedupeKey(ev protocol.Event) string {
	if len(ev.Fingerprint) > 0 {
		return strings.Join(ev.Fingerprint, "|")
	}
	if len(ev.Exceptions) > 0 {
		exc := ev.Exceptions[0]
		return exc.Type + "|" + exc.Value
	}
	if ev.Message != nil {
		return ev.Message.Formatted
	}
	return ""
}
