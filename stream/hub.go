package stream

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	chaos "github.com/marben/chaos_ifs"
)

const (
	defaultBuffer = 64
	writeTimeout  = 5 * time.Second
)

type client struct {
	conn *websocket.Conn
	send chan Frame
}

// Hub fans frames out to every connected websocket client.
// It implements http.Handler for the websocket endpoint.
type Hub struct {
	logger  *slog.Logger
	origins []string
	buffer  int

	onJoin     func() []Frame
	onActivate func(id string) error

	mu      sync.Mutex
	clients map[*client]struct{}
}

type HubOption func(*Hub)

func WithHubLogger(l *slog.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithOriginPatterns sets the accepted cross-origin hosts, see websocket.AcceptOptions.
func WithOriginPatterns(patterns ...string) HubOption {
	return func(h *Hub) { h.origins = patterns }
}

// WithBuffer sets the number of frames queued per client before it is
// disconnected as too slow.
func WithBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// OnJoin sets the frames every new client receives before live frames.
func OnJoin(fn func() []Frame) HubOption {
	return func(h *Hub) { h.onJoin = fn }
}

// OnActivate sets the handler for client activate requests.
func OnActivate(fn func(id string) error) HubOption {
	return func(h *Hub) { h.onActivate = fn }
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		logger:  chaos.Logger(),
		buffer:  defaultBuffer,
		clients: make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Broadcast queues f for every client without blocking. Clients whose queue
// is full are disconnected.
func (h *Hub) Broadcast(f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- f:
		default:
			h.dropLocked(c)
			go c.conn.Close(websocket.StatusPolicyViolation, "connection too slow to keep up with frames")
		}
	}
}

// Clients is the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.logger.Warn("websocket accept", "err", err)
		return
	}
	defer conn.CloseNow()

	c := &client{conn: conn, send: make(chan Frame, h.buffer)}
	h.join(c)
	defer h.leave(c)
	h.logger.Info("client connected", "remote", r.RemoteAddr, "clients", h.Clients())

	ctx := r.Context()
	go h.writeLoop(ctx, c)

	for {
		var f Frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				h.logger.Debug("websocket read", "remote", r.RemoteAddr, "err", err)
			}
			h.logger.Info("client disconnected", "remote", r.RemoteAddr)
			return
		}
		h.handle(c, f)
	}
}

// join registers c with the onJoin frames queued first. Holding the hub lock
// while building them means no broadcast frame can slip in between.
func (h *Hub) join(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.onJoin != nil {
		for _, f := range h.onJoin() {
			select {
			case c.send <- f:
			default:
			}
		}
	}
	h.clients[c] = struct{}{}
}

func (h *Hub) leave(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) writeLoop(ctx context.Context, c *client) {
	for f := range c.send {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := wsjson.Write(wctx, c.conn, f)
		cancel()
		if err != nil {
			return
		}
	}
}

func (h *Hub) handle(c *client, f Frame) {
	switch f.Kind {
	case KindActivate:
		if h.onActivate == nil {
			return
		}
		if err := h.onActivate(f.ID); err != nil {
			h.logger.Warn("activate request failed", "id", f.ID, "err", err)
			h.reply(c, Frame{Kind: KindError, ID: f.ID, Error: err.Error()})
		}
	default:
		h.logger.Debug("ignoring frame", "kind", f.Kind)
	}
}

func (h *Hub) reply(c *client, f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- f:
	default:
	}
}
