// Package hub streams server events to browsers over SSE.
//
// Each client registers under the session id of the Hero instance it
// belongs to, so state changes can be routed to one page only.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// KeepAlive is the interval between keep-alive comments
var KeepAlive = 30 * time.Second

// Client represents a connected SSE client
type Client struct {
	id      string
	session string
	events  chan []byte
}

type envelope struct {
	session string // empty means every client
	data    []byte
}

// Hub manages SSE client connections
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*Client]struct{}
	total    int

	register   chan *Client
	unregister chan *Client
	outbound   chan envelope
	done       chan struct{}
	stopOnce   sync.Once

	logger       *zap.Logger
	onDisconnect func(session string)
	onCount      func(n int)
}

// Option configures a Hub
type Option func(*Hub)

// WithLogger sets the hub logger
func WithLogger(l *zap.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// OnDisconnect registers a hook called when the last client of a session
// goes away
func OnDisconnect(f func(session string)) Option {
	return func(h *Hub) {
		h.onDisconnect = f
	}
}

// OnClientCount registers a hook called with the client total after every
// connect and disconnect
func OnClientCount(f func(n int)) Option {
	return func(h *Hub) {
		h.onCount = f
	}
}

// New creates a new Hub
func New(opts ...Option) *Hub {
	h := &Hub{
		sessions:   make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan envelope, 256),
		done:       make(chan struct{}),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run starts the hub's event loop. It returns when ctx is cancelled, after
// which every open stream is closed.
func (h *Hub) Run(ctx context.Context) {
	defer h.stop()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.sessions[client.session]
			if !ok {
				set = make(map[*Client]struct{})
				h.sessions[client.session] = set
			}
			set[client] = struct{}{}
			h.total++
			total := h.total
			h.mu.Unlock()
			h.logger.Debug("sse client connected",
				zap.String("client", client.id),
				zap.String("session", client.session),
				zap.Int("total", total))
			h.count(total)

		case client := <-h.unregister:
			h.mu.Lock()
			last := false
			set, ok := h.sessions[client.session]
			if ok {
				if _, ok := set[client]; ok {
					delete(set, client)
					close(client.events)
					h.total--
				}
				if len(set) == 0 {
					delete(h.sessions, client.session)
					last = true
				}
			}
			total := h.total
			h.mu.Unlock()
			h.logger.Debug("sse client disconnected",
				zap.String("client", client.id),
				zap.String("session", client.session),
				zap.Int("total", total))
			h.count(total)
			if last && client.session != "" && h.onDisconnect != nil {
				h.onDisconnect(client.session)
			}

		case env := <-h.outbound:
			msg := []byte(fmt.Sprintf("data: %s\n\n", env.data))

			h.mu.RLock()
			if env.session != "" {
				h.deliverLocked(h.sessions[env.session], msg)
			} else {
				for _, set := range h.sessions {
					h.deliverLocked(set, msg)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) deliverLocked(set map[*Client]struct{}, msg []byte) {
	for client := range set {
		select {
		case client.events <- msg:
		default:
			h.logger.Warn("sse client is slow, skipping message",
				zap.String("client", client.id),
				zap.String("session", client.session))
		}
	}
}

func (h *Hub) count(n int) {
	if h.onCount != nil {
		h.onCount(n)
	}
}

func (h *Hub) stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Broadcast sends an event to all connected clients
func (h *Hub) Broadcast(event any) {
	h.enqueue("", event)
}

// Send sends an event to the clients of one session
func (h *Hub) Send(session string, event any) {
	if session == "" {
		return
	}
	h.enqueue(session, event)
}

func (h *Hub) enqueue(session string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal event", zap.Error(err))
		return
	}
	select {
	case h.outbound <- envelope{session: session, data: data}:
	default:
		h.logger.Warn("outbound channel full, dropping event", zap.String("session", session))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// Connected reports whether a session has at least one open stream
func (h *Hub) Connected(session string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[session]) > 0
}

// ServeHTTP handles SSE connections. The session is taken from the
// "session" query parameter.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	client := &Client{
		id:      uuid.NewString(),
		session: r.URL.Query().Get("session"),
		events:  make(chan []byte, 64),
	}

	select {
	case h.register <- client:
	case <-h.done:
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}

	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
	}()

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.events:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-h.done:
			return

		case <-r.Context().Done():
			return
		}
	}
}
