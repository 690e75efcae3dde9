package transport

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nimbusobs/nimbus-go/logging"
	"github.com/nimbusobs/nimbus-go/protocol"
)

type fakePrimary struct {
	mu   sync.Mutex
	sent []protocol.Event
	fail bool
}

func (f *fakePrimary) Send(ctx context.Context, ev protocol.Event) error {
	if f.fail {
		return errors.New("primary failed")
	}
	f.mu.Lock()
	f.sent = append(f.sent, ev)
	f.mu.Unlock()
	return nil
}

func TestFanoutTransportDeliversToPrimaryAndStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := NewStreamTransport(ctx, logging.Discard())
	srv := httptest.NewServer(stream)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && stream.ClientCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	primary := &fakePrimary{}
	fan := NewFanoutTransport(primary, stream, nil)

	ev := protocol.Event{EventID: "evt-2"}
	if err := fan.Send(context.Background(), ev); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	primary.mu.Lock()
	n := len(primary.sent)
	primary.mu.Unlock()
	if n != 1 {
		t.Fatalf("primary received %d events, want 1", n)
	}

	var got protocol.Event
	conn.SetReadDeadline(time.Now().Add(time.Second))
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.EventID != "evt-2" {
		t.Errorf("stream received event id = %q, want evt-2", got.EventID)
	}
}

func TestFanoutTransportPropagatesPrimaryFailure(t *testing.T) {
	primary := &fakePrimary{fail: true}
	fan := NewFanoutTransport(primary, nil, nil)

	if err := fan.Send(context.Background(), protocol.Event{}); err == nil {
		t.Fatalf("expected primary failure to propagate")
	}
}

func TestDedupeKey(t *testing.T) {
	cases := []struct {
		name string
		ev   protocol.Event
		want string
	}{
		{"fingerprint", protocol.Event{Fingerprint: []string{"a", "b"}}, "a|b"},
		{"exception fallback", protocol.Event{Exceptions: []protocol.Exception{{Type: "T", Value: "V"}}}, "T|V"},
		{"message fallback", protocol.Event{Message: &protocol.Message{Formatted: "boom"}}, "boom"},
		{"no signal", protocol.Event{}, ""},
	}
	for _, c := range cases {
		if got := dedupeKey(c.ev); got != c.want {
			t.Errorf("%s: dedupeKey = %q, want %q", c.name, got, c.want)
		}
	}
}
