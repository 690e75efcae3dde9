package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nimbusobs/nimbus-go/logging"
	"github.com/nimbusobs/nimbus-go/protocol"
)

const maxStreamConnections = 200

var streamUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamTransport is a development-only Transport that broadcasts every
// captured event over a long-lived WebSocket to a debug console, built the
// same way the agent's MetricsHub runs its register/unregister/broadcast
// loop: a single goroutine owns the connection set, every write carries a
// deadline so a stalled console can never block event delivery, and a
// connection cap bounds the fan-out.
type StreamTransport struct {
	log *logging.Logger

	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan protocol.Event

	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
}

// NewStreamTransport starts the hub loop and returns a ready-to-use
// StreamTransport. ctx controls the loop's lifetime; canceling it closes
// every registered connection.
func NewStreamTransport(ctx context.Context, log *logging.Logger) *StreamTransport {
	s := &StreamTransport{
		log:        log,
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan protocol.Event),
		clients:    make(map[*websocket.Conn]struct{}),
	}
	go s.run(ctx)
	return s
}

func (s *StreamTransport) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return

		case conn := <-s.register:
			s.mu.Lock()
			if len(s.clients) >= maxStreamConnections {
				s.mu.Unlock()
				conn.Close()
				s.log.Warn("stream transport connection rejected: at capacity", map[string]any{"max": maxStreamConnections})
				continue
			}
			s.clients[conn] = struct{}{}
			s.mu.Unlock()

		case conn := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[conn]; ok {
				delete(s.clients, conn)
				conn.Close()
			}
			s.mu.Unlock()

		case ev := <-s.broadcast:
			s.broadcastOne(ev)
		}
	}
}

func (s *StreamTransport) broadcastOne(ev protocol.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(ev); err != nil {
			s.log.Warn("stream transport write failed", map[string]any{"error": err.Error()})
			go s.Unregister(conn)
		}
	}
}

func (s *StreamTransport) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
}

// Register adds a newly-accepted connection to the broadcast set.
func (s *StreamTransport) Register(conn *websocket.Conn) { s.register <- conn }

// Unregister removes and closes a connection.
func (s *StreamTransport) Unregister(conn *websocket.Conn) { s.unregister <- conn }

// ClientCount returns the number of connected debug consoles.
func (s *StreamTransport) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// ServeHTTP upgrades the request to a WebSocket and registers the resulting
// connection with the hub, the same shape as the agent's own
// handleDashboardStream: ping on an interval to detect a dead peer, and run
// a read pump whose only job is noticing the connection closed so the
// handler can unregister and return.
func (s *StreamTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := streamUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("stream transport upgrade failed", map[string]any{"error": err.Error()})
		return
	}
	s.Register(conn)
	defer s.Unregister(conn)

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case <-done:
				return
			case <-pingTicker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Send implements Transport by handing ev to the broadcast loop, which
// pushes it to every connected debug console. It waits until the loop takes
// the event or ctx is done, and returns an error only in the latter case;
// a failed write to a console is logged, never returned, so a slow or absent
// debug console cannot cause the dispatch core to retry real delivery.
func (s *StreamTransport) Send(ctx context.Context, ev protocol.Event) error {
	select {
	case s.broadcast <- ev:
	case <-ctx.Done():
		return fmt.Errorf("stream transport: %w", ctx.Err())
	}
	return nil
}
