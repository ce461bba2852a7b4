package hub

import (
	"context"
	"sync"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"

	"github.com/teslashibe/go-facecap/internal/log"
)

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Name for logging
	name string

	// Registered clients
	clients map[*Client]bool

	// Inbound messages to broadcast
	broadcast chan Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Guards clients and last
	mu sync.RWMutex

	// Most recent JSON message, replayed to new clients
	last *Message

	running atomic.Bool

	sent    atomic.Uint64
	dropped atomic.Uint64
}

// Stats is a snapshot of hub counters.
type Stats struct {
	Name     string `json:"name"`
	Clients  int    `json:"clients"`
	Sent     uint64 `json:"sent"`
	Dropped  uint64 `json:"dropped"`
	Retained bool   `json:"retained"`
}

// New creates a new Hub
func New(name string) *Hub {
	return &Hub{
		name:       name,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It returns when ctx is cancelled, after
// closing every client.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer func() {
		h.running.Store(false)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			last := h.last
			h.mu.Unlock()
			if last != nil {
				select {
				case client.send <- *last:
				default:
				}
			}
			log.Info("🔌 client connected", "hub", h.name, "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Info("🔌 client disconnected", "hub", h.name, "clients", count)

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

func (h *Hub) fanOut(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if message.Kind == KindState {
		m := message
		h.last = &m
	}
	for client := range h.clients {
		select {
		case client.send <- message:
			h.sent.Add(1)
		default:
			// Client's buffer is full - they're too slow
			close(client.send)
			delete(h.clients, client)
			h.dropped.Add(1)
			log.Warn("⚠️  dropped slow client", "hub", h.name)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		// Broadcast channel full - drop message
		h.dropped.Add(1)
		log.Warn("⚠️  broadcast channel full, dropping message", "hub", h.name)
	}
}

// BroadcastJSON encodes and broadcasts a JSON message
func (h *Hub) BroadcastJSON(v interface{}) error {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(StateMessage(data))
	return nil
}

// BroadcastBinary broadcasts binary data (encoded frames)
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(FrameMessage(data))
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning returns whether the hub is running
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}

// Stats returns the hub counters
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{
		Name:     h.name,
		Clients:  len(h.clients),
		Sent:     h.sent.Load(),
		Dropped:  h.dropped.Load(),
		Retained: h.last != nil,
	}
}
