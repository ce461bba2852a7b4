// Package ingest accepts landmark detector connections over WebSocket and
// dispatches their frames.
package ingest

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-facecap/internal/log"
	"github.com/teslashibe/go-facecap/pkg/expression"
	"github.com/teslashibe/go-facecap/pkg/protocol"
	"github.com/teslashibe/go-facecap/pkg/render"
)

// maxMessageSize bounds one detector message; a refined 478-point mesh is
// about 30KB of JSON.
const maxMessageSize = 1 << 20

// Source represents a connected landmark detector
type Source struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time
	LastSeen  time.Time
	Frames    uint64

	mu sync.Mutex
}

// Send sends a message to the source
func (s *Source) Send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Source) touch(frame bool) {
	s.mu.Lock()
	s.LastSeen = time.Now()
	if frame {
		s.Frames++
	}
	s.mu.Unlock()
}

// Hub manages WebSocket connections from detectors
type Hub struct {
	mu      sync.RWMutex
	sources map[string]*Source

	// Callbacks
	onLandmarks func(sourceID string, data *protocol.LandmarksData)
	onReset     func(sourceID string, style string) error

	// Stats
	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	framesReceived   atomic.Uint64
	parseErrors      atomic.Uint64
}

// NewHub creates a new detector hub
func NewHub() *Hub {
	return &Hub{
		sources: make(map[string]*Source),
	}
}

// OnLandmarks sets the callback for incoming landmark frames
func (h *Hub) OnLandmarks(callback func(sourceID string, data *protocol.LandmarksData)) {
	h.mu.Lock()
	h.onLandmarks = callback
	h.mu.Unlock()
}

// OnReset sets the callback for reset requests
func (h *Hub) OnReset(callback func(sourceID string, style string) error) {
	h.mu.Lock()
	h.onReset = callback
	h.mu.Unlock()
}

// RegisterRoutes registers WebSocket routes on a Fiber app
func (h *Hub) RegisterRoutes(app fiber.Router) {
	// WebSocket upgrade middleware
	app.Use("/ws/detector", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// Detector connection endpoint
	app.Get("/ws/detector", websocket.New(h.handleSource))
	app.Get("/ws/detector/:id", websocket.New(h.handleSource))
}

// handleSource handles a detector WebSocket connection
func (h *Hub) handleSource(c *websocket.Conn) {
	// Get source ID from path or generate one
	sourceID := c.Params("id")
	if sourceID == "" {
		sourceID = uuid.NewString()
	}

	source := &Source{
		ID:        sourceID,
		Conn:      c,
		Connected: time.Now(),
		LastSeen:  time.Now(),
	}

	// Register source
	h.mu.Lock()
	h.sources[sourceID] = source
	count := len(h.sources)
	h.mu.Unlock()

	log.Info("📡 detector connected", "source", sourceID, "total", count)

	defer func() {
		h.mu.Lock()
		// a reconnect under the same id may already have replaced us
		if h.sources[sourceID] == source {
			delete(h.sources, sourceID)
		}
		count := len(h.sources)
		h.mu.Unlock()

		log.Info("📡 detector disconnected", "source", sourceID, "total", count)
	}()

	c.SetReadLimit(maxMessageSize)

	// Read loop
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			log.Debug("detector read error", "source", sourceID, "error", err)
			return
		}

		h.messagesReceived.Add(1)
		h.handleMessage(source, data)
	}
}

// handleMessage processes an incoming message from a detector
func (h *Hub) handleMessage(source *Source, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		h.parseErrors.Add(1)
		log.Warn("⚠️  parse error", "source", source.ID, "error", err)
		h.sendError(source, protocol.CodeBadMessage, err.Error(), 0)
		return
	}

	h.mu.RLock()
	landmarksCb := h.onLandmarks
	resetCb := h.onReset
	h.mu.RUnlock()

	switch msg.Type {
	case protocol.TypeLandmarks:
		h.framesReceived.Add(1)
		source.touch(true)
		lm, err := msg.GetLandmarksData()
		if err != nil {
			h.parseErrors.Add(1)
			h.sendError(source, protocol.CodeBadMessage, err.Error(), 0)
			return
		}
		if landmarksCb != nil {
			landmarksCb(source.ID, lm)
		}

	case protocol.TypeReset:
		source.touch(false)
		reset, err := msg.GetResetData()
		if err != nil {
			h.sendError(source, protocol.CodeBadMessage, err.Error(), 0)
			return
		}
		if resetCb != nil {
			if err := resetCb(source.ID, reset.Style); err != nil {
				h.sendError(source, CodeFor(err), err.Error(), 0)
			}
		}

	case protocol.TypePing:
		source.touch(false)
		ping, err := msg.GetPingData()
		if err != nil {
			h.parseErrors.Add(1)
			h.sendError(source, protocol.CodeBadMessage, err.Error(), 0)
			return
		}
		if err := h.SendPong(source.ID, ping.ID, msg.Timestamp); err != nil {
			log.Debug("pong failed", "source", source.ID, "error", err)
		}

	default:
		source.touch(false)
		log.Debug("ignoring message", "source", source.ID, "type", msg.Type)
	}
}

// CodeFor maps a processing error to a protocol error code.
func CodeFor(err error) string {
	switch {
	case errors.Is(err, expression.ErrInvalidInput):
		return protocol.CodeInvalidInput
	case errors.Is(err, render.ErrUnknownStyle):
		return protocol.CodeUnknownStyle
	default:
		return protocol.CodeInternal
	}
}

func (h *Hub) sendError(source *Source, code, message string, frameID uint64) {
	msg, err := protocol.NewErrorMessage(code, message, frameID)
	if err != nil {
		return
	}
	h.messagesSent.Add(1)
	if err := source.Send(msg); err != nil {
		log.Debug("error reply failed", "source", source.ID, "error", err)
	}
}

// Reject reports a rejected frame back to the source that sent it
func (h *Hub) Reject(sourceID string, frameID uint64, cause error) error {
	msg, err := protocol.NewErrorMessage(CodeFor(cause), cause.Error(), frameID)
	if err != nil {
		return err
	}
	return h.sendToSource(sourceID, msg)
}

// SendPong sends a pong response to a source
func (h *Hub) SendPong(sourceID, id string, pingTS int64) error {
	msg, err := protocol.NewPongMessage(id, pingTS, time.Now().UnixMilli())
	if err != nil {
		return err
	}
	return h.sendToSource(sourceID, msg)
}

// sendToSource sends a message to a specific source
func (h *Hub) sendToSource(sourceID string, msg *protocol.Message) error {
	h.mu.RLock()
	source, ok := h.sources[sourceID]
	h.mu.RUnlock()

	if !ok {
		return ErrSourceNotConnected
	}

	h.messagesSent.Add(1)
	return source.Send(msg)
}

// Broadcast sends a message to all connected sources
func (h *Hub) Broadcast(msg *protocol.Message) {
	for _, source := range h.GetSources() {
		h.messagesSent.Add(1)
		if err := source.Send(msg); err != nil {
			log.Debug("broadcast error", "source", source.ID, "error", err)
		}
	}
}

// GetSource returns a source by ID
func (h *Hub) GetSource(sourceID string) *Source {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sources[sourceID]
}

// GetSources returns all connected sources
func (h *Hub) GetSources() []*Source {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sources := make([]*Source, 0, len(h.sources))
	for _, s := range h.sources {
		sources = append(sources, s)
	}
	return sources
}

// SourceCount returns the number of connected sources
func (h *Hub) SourceCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sources)
}

// Stats contains hub statistics
type Stats struct {
	SourceCount      int    `json:"source_count"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	FramesReceived   uint64 `json:"frames_received"`
	ParseErrors      uint64 `json:"parse_errors"`
}

// GetStats returns hub statistics
func (h *Hub) GetStats() Stats {
	return Stats{
		SourceCount:      h.SourceCount(),
		MessagesReceived: h.messagesReceived.Load(),
		MessagesSent:     h.messagesSent.Load(),
		FramesReceived:   h.framesReceived.Load(),
		ParseErrors:      h.parseErrors.Load(),
	}
}

// SourceInfo contains info about a connected source
type SourceInfo struct {
	ID        string    `json:"id"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
	Frames    uint64    `json:"frames"`
}

// GetSourceInfos returns info about all connected sources
func (h *Hub) GetSourceInfos() []SourceInfo {
	sources := h.GetSources()
	infos := make([]SourceInfo, 0, len(sources))
	for _, s := range sources {
		s.mu.Lock()
		infos = append(infos, SourceInfo{
			ID:        s.ID,
			Connected: s.Connected,
			LastSeen:  s.LastSeen,
			Frames:    s.Frames,
		})
		s.mu.Unlock()
	}
	return infos
}

// RegisterAPIRoutes registers API routes for source management
func (h *Hub) RegisterAPIRoutes(api fiber.Router) {
	sources := api.Group("/sources")

	// List connected sources
	sources.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"sources": h.GetSourceInfos(),
			"count":   h.SourceCount(),
		})
	})

	// Get hub stats
	sources.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(h.GetStats())
	})
}
