// Package nimbus is the top-level facade for the telemetry client SDK: it
// wires a parsed DSN, an outbound Transport, and the dispatch core together
// behind a small capture API, the way a host application actually uses this
// library.
package nimbus

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nimbusobs/nimbus-go/hub"
	"github.com/nimbusobs/nimbus-go/internal/dispatch"
	"github.com/nimbusobs/nimbus-go/internal/dsn"
	"github.com/nimbusobs/nimbus-go/internal/obs"
	"github.com/nimbusobs/nimbus-go/internal/transport"
	"github.com/nimbusobs/nimbus-go/logging"
	"github.com/nimbusobs/nimbus-go/protocol"
)

// Options configures Init. Only DSN is required; everything else falls back
// to a production-reasonable default.
type Options struct {
	DSN string

	// Release and Environment tag every captured event.
	Release     string
	Environment string

	// CorePoolSize, MaxRetries, and MaxQueueSize configure the dispatch core
	// directly; see internal/dispatch.Config for their meaning.
	CorePoolSize int
	MaxRetries   int
	MaxQueueSize int
	Backoff      dispatch.BackoffStrategy

	// MaxEventsPerSecond caps outbound event volume through a token-bucket
	// limiter; 0 means unset and disables sampling entirely.
	MaxEventsPerSecond float64

	// DevStreamEnabled taps the delivery pipeline with a best-effort
	// WebSocket broadcast of every event the primary transport delivered
	// (sampled-out and dedupe-suppressed events are not streamed), the way
	// the agent's own
	// debug dashboard watches live scheduler activity. Mount the handler
	// returned by Client.DevStreamHandler on the host application's mux to
	// use it; disabled by default.
	DevStreamEnabled bool

	// DedupeRedisAddr, if set, enables cross-process duplicate suppression:
	// events sharing a fingerprint within DedupeTTL of each other are
	// suppressed after the first, backed by the same Redis
	// preloaded-script pattern the agent's lock store uses.
	DedupeRedisAddr     string
	DedupeRedisPassword string
	DedupeRedisDB       int
	DedupeTTL           time.Duration

	// Logger receives diagnostic output; defaults to logging.Discard().
	Logger *logging.Logger

	// transport is only ever set by tests to inject a fake; host
	// applications always go through DSN.
	transport transport.Transport
}

// Client is the initialized SDK: a bound transport, dispatch executor, and
// default hub.
type Client struct {
	opts     Options
	sdk      protocol.SdkInfo
	tr       transport.Transport
	executor *dispatch.RetryExecutor
	hub      *hub.Hub
	log      *logging.Logger
	sampler  *transport.SampleLimiter

	stream       *transport.StreamTransport
	cancelStream context.CancelFunc
	dedupe       *transport.RedisDedupeCache
}

// Init parses opts.DSN, builds the transport and dispatch core, and returns
// a ready-to-use Client. The returned Client owns the dispatch executor's
// goroutines; call Flush/Close via the host application's own shutdown path.
func Init(opts Options) (*Client, error) {
	tr := opts.transport
	if tr == nil {
		d, err := dsn.Parse(opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("nimbus: %w", err)
		}
		tr = transport.NewHTTPTransport(d)
	}

	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	cfg := dispatch.Config{
		CorePoolSize: opts.CorePoolSize,
		MaxRetries:   opts.MaxRetries,
		MaxQueueSize: opts.MaxQueueSize,
		Backoff:      opts.Backoff,
		RejectedHandler: func(dispatch.Task) {
			obs.AdmissionRejections.WithLabelValues("shutdown").Inc()
			log.Warn("event submission rejected: client is shut down", nil)
		},
		OnRetriesExhausted: func(_ dispatch.Task, err error) {
			obs.RetriesExhausted.Inc()
			log.Warn("event delivery exhausted its retry budget", map[string]any{"error": err.Error()})
		},
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 1000
	}

	var sampler *transport.SampleLimiter
	if opts.MaxEventsPerSecond > 0 {
		sampler = transport.NewSampleLimiter(opts.MaxEventsPerSecond, 10)
	}

	var stream *transport.StreamTransport
	var cancelStream context.CancelFunc
	if opts.DevStreamEnabled {
		var streamCtx context.Context
		streamCtx, cancelStream = context.WithCancel(context.Background())
		stream = transport.NewStreamTransport(streamCtx, log)
	}

	var dedupe *transport.RedisDedupeCache
	if opts.DedupeRedisAddr != "" {
		ttl := opts.DedupeTTL
		if ttl <= 0 {
			ttl = 30 * time.Second
		}
		d, err := transport.NewRedisDedupeCache(opts.DedupeRedisAddr, opts.DedupeRedisPassword, opts.DedupeRedisDB, ttl)
		if err != nil {
			if cancelStream != nil {
				cancelStream()
			}
			return nil, fmt.Errorf("nimbus: %w", err)
		}
		dedupe = d
	}

	if stream != nil || dedupe != nil {
		tr = transport.NewFanoutTransport(tr, stream, dedupe)
	}

	c := &Client{
		opts:         opts,
		sdk:          protocol.SdkInfo{Name: "nimbus-go", Version: sdkVersion},
		tr:           tr,
		executor:     dispatch.NewRetryExecutor(cfg),
		log:          log,
		sampler:      sampler,
		stream:       stream,
		cancelStream: cancelStream,
		dedupe:       dedupe,
	}
	c.hub = hub.New()
	return c, nil
}

// DevStreamHandler returns an http.Handler that upgrades incoming requests
// to a WebSocket and streams every captured event to them, for mounting on
// the host application's own mux. It is nil unless Options.DevStreamEnabled
// was set.
func (c *Client) DevStreamHandler() http.Handler {
	if c.stream == nil {
		return nil
	}
	return c.stream
}

const sdkVersion = "0.1.0"

// CaptureException submits err as an exception event and returns the event
// id that was assigned.
func (c *Client) CaptureException(ctx context.Context, err error) string {
	ev := protocol.NewExceptionEvent(err, c.sdk)
	return c.captureEvent(ctx, ev)
}

// CaptureMessage submits a free-form message event at the given level.
func (c *Client) CaptureMessage(ctx context.Context, msg string, level protocol.Level) string {
	ev := protocol.NewMessageEvent(msg, level, c.sdk)
	return c.captureEvent(ctx, ev)
}

// CaptureEvent submits a caller-constructed event, stamping the event id and
// SDK info if the caller left them unset. Like the other capture calls, it
// then applies the hub's scope and the release and environment tags.
func (c *Client) CaptureEvent(ctx context.Context, ev protocol.Event) string {
	if ev.EventID == "" {
		ev.EventID = protocol.NewEventID()
	}
	if ev.Sdk == (protocol.SdkInfo{}) {
		ev.Sdk = c.sdk
	}
	return c.captureEvent(ctx, ev)
}

func (c *Client) captureEvent(ctx context.Context, ev protocol.Event) string {
	if c.sampler != nil && !c.sampler.Allow() {
		return ev.EventID
	}

	h := c.hub
	if fromCtx, ok := hub.FromContext(ctx); ok {
		h = fromCtx
	}
	ev = h.Scope().Apply(ev)
	ev.Tags = withDefaultTags(ev.Tags, c.opts.Release, c.opts.Environment)
	c.executor.Submit(newSendTask(c.tr, ev))
	return ev.EventID
}

// Flush waits up to timeout for currently in-flight event submissions to
// complete.
func (c *Client) Flush(timeout time.Duration) bool {
	fh := c.executor.Flush(timeout)
	<-fh.Done()
	return !fh.IsCanceled()
}

// Close stops accepting new captures and lets outstanding work finish.
func (c *Client) Close() {
	c.executor.Shutdown()
	if c.cancelStream != nil {
		c.cancelStream()
	}
	if c.dedupe != nil {
		c.dedupe.Close()
	}
}

func withDefaultTags(tags map[string]string, release, environment string) map[string]string {
	if release == "" && environment == "" {
		return tags
	}
	out := make(map[string]string, len(tags)+2)
	for k, v := range tags {
		out[k] = v
	}
	if release != "" {
		out["release"] = release
	}
	if environment != "" {
		out["environment"] = environment
	}
	return out
}
