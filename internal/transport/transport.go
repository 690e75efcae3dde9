// Package transport implements outbound delivery of events to the ingestion
// endpoint: a primary HTTP transport, a development WebSocket stream, a
// client-side sampling limiter, and an optional cross-process dedupe cache.
// None of this package knows about retry or backoff — that is the dispatch
// core's job; a Transport's Send either succeeds or returns an error for the
// core's retry machinery to act on.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nimbusobs/nimbus-go/internal/dsn"
	"github.com/nimbusobs/nimbus-go/internal/obs"
	"github.com/nimbusobs/nimbus-go/protocol"
)

// Transport delivers a single event. Implementations must be safe for
// concurrent use: the dispatch core calls Send from many worker goroutines.
type Transport interface {
	Send(ctx context.Context, ev protocol.Event) error
}

// HTTPTransport POSTs events as JSON to the DSN's ingest URL.
type HTTPTransport struct {
	client    *http.Client
	url       string
	publicKey string
	secretKey string
}

// NewHTTPTransport builds a transport from a parsed DSN, matching the
// fixed-timeout http.Client pattern the agent's own dispatcher uses.
func NewHTTPTransport(d dsn.DSN) *HTTPTransport {
	return &HTTPTransport{
		client:    &http.Client{Timeout: 5 * time.Second},
		url:       d.IngestURL(),
		publicKey: d.PublicKey,
		secretKey: d.SecretKey,
	}
}

func (t *HTTPTransport) Send(ctx context.Context, ev protocol.Event) error {
	start := time.Now()
	outcome := "success"
	defer func() {
		obs.TransportRequestDuration.WithLabelValues("http", outcome).Observe(time.Since(start).Seconds())
	}()

	data, err := json.Marshal(ev)
	if err != nil {
		outcome = "network_error"
		return fmt.Errorf("transport: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(data))
	if err != nil {
		outcome = "network_error"
		return fmt.Errorf("transport: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Nimbus-Auth", t.authHeader())

	resp, err := t.client.Do(req)
	if err != nil {
		outcome = "network_error"
		return fmt.Errorf("transport: send event %s: %w", ev.EventID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		outcome = "http_error"
		return fmt.Errorf("transport: ingest endpoint returned status %d for event %s", resp.StatusCode, ev.EventID)
	}
	return nil
}

func (t *HTTPTransport) authHeader() string {
	if t.secretKey == "" {
		return fmt.Sprintf("key=%s", t.publicKey)
	}
	return fmt.Sprintf("key=%s, secret=%s", t.publicKey, t.secretKey)
}
