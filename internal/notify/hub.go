// Package notify broadcasts planner events to websocket clients.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/joseph-ayodele/venue-planner/internal/state"
	"github.com/joseph-ayodele/venue-planner/internal/syncer"
)

const (
	TopicJob   = "job"
	TopicBatch = "batch"
	TopicState = "state"
	TopicSync  = "sync"
	TopicHello = "hello"
)

// Message is the envelope written to every client.
type Message struct {
	Topic     string          `json:"topic"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// StateEvent is a compact description of a committed state change.
type StateEvent struct {
	Origin  state.Origin `json:"origin"`
	Version uint64       `json:"version"`
	Venues  int          `json:"venues"`
	Vendors int          `json:"vendors"`
}

type Hub struct {
	logger       *slog.Logger
	writeTimeout time.Duration
	now          func() time.Time

	broadcast chan Message

	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Hub)

func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.broadcast = make(chan Message, n)
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(h *Hub) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHub starts the broadcast loop. Call Close to stop it.
func NewHub(opts ...Option) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		logger:       slog.Default(),
		writeTimeout: 5 * time.Second,
		now:          time.Now,
		broadcast:    make(chan Message, 128),
		clients:      make(map[*websocket.Conn]struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, o := range opts {
		o(h)
	}
	h.wg.Add(1)
	go h.loop()
	return h
}

// Publish queues payload for every client. It never blocks; when the buffer
// is full the message is dropped.
func (h *Hub) Publish(topic string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("notify.marshal.failed", "topic", topic, "error", err)
		return
	}
	msg := Message{Topic: topic, Timestamp: h.now().UTC(), Data: data}
	select {
	case <-h.ctx.Done():
	case h.broadcast <- msg:
	default:
		h.logger.Warn("notify.dropped", "topic", topic)
	}
}

// StateSubscriber publishes a StateEvent for every commit.
func (h *Hub) StateSubscriber() state.Subscriber {
	return func(_ context.Context, c state.Change) {
		h.Publish(TopicState, StateEvent{
			Origin:  c.Origin,
			Version: c.Version,
			Venues:  len(c.State.Venues),
			Vendors: len(c.State.Vendors),
		})
	}
}

// SyncObserver publishes connection status changes.
func (h *Hub) SyncObserver() func(syncer.ConnectionStatus) {
	return func(st syncer.ConnectionStatus) { h.Publish(TopicSync, st) }
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and keeps the client until it disconnects
// or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		h.logger.Warn("notify.accept.failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("notify.client.connected", "clients", n)

	hello, _ := json.Marshal(Message{Topic: TopicHello, Timestamp: h.now().UTC()})
	h.write(conn, hello)

	// Reads only detect disconnects; clients have nothing to say.
	for {
		if _, _, err := conn.Read(h.ctx); err != nil {
			break
		}
	}
	h.remove(conn, websocket.StatusNormalClosure)
}

// Close disconnects every client and stops the broadcast loop.
func (h *Hub) Close() {
	h.cancel()
	h.wg.Wait()

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.clients = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()
	for _, c := range conns {
		_ = c.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

func (h *Hub) loop() {
	defer h.wg.Done()
	for {
		select {
		case <-h.ctx.Done():
			return
		case msg := <-h.broadcast:
			data, err := json.Marshal(msg)
			if err != nil {
				h.logger.Warn("notify.marshal.failed", "topic", msg.Topic, "error", err)
				continue
			}
			h.mu.RLock()
			conns := make([]*websocket.Conn, 0, len(h.clients))
			for c := range h.clients {
				conns = append(conns, c)
			}
			h.mu.RUnlock()
			for _, c := range conns {
				h.write(c, data)
			}
		}
	}
}

func (h *Hub) write(c *websocket.Conn, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), h.writeTimeout)
	defer cancel()
	if err := c.Write(ctx, websocket.MessageText, data); err != nil {
		h.logger.Debug("notify.write.failed", "error", err)
		h.remove(c, websocket.StatusGoingAway)
	}
}

func (h *Hub) remove(c *websocket.Conn, code websocket.StatusCode) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		_ = c.Close(code, "")
		h.logger.Debug("notify.client.disconnected", "clients", n)
	}
}
