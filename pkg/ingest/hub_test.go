package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-facecap/pkg/expression"
	"github.com/teslashibe/go-facecap/pkg/landmark"
	"github.com/teslashibe/go-facecap/pkg/protocol"
	"github.com/teslashibe/go-facecap/pkg/render"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub == nil {
		t.Fatal("NewHub returned nil")
	}

	if hub.SourceCount() != 0 {
		t.Error("SourceCount should be 0 initially")
	}
	if len(hub.GetSources()) != 0 || len(hub.GetSourceInfos()) != 0 {
		t.Error("hub should start without sources")
	}
}

func TestGetStats(t *testing.T) {
	hub := NewHub()

	stats := hub.GetStats()

	if stats.SourceCount != 0 || stats.MessagesReceived != 0 || stats.MessagesSent != 0 {
		t.Errorf("stats = %+v, want zero", stats)
	}
}

func TestCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"invalid input", fmt.Errorf("%w: short", expression.ErrInvalidInput), protocol.CodeInvalidInput},
		{"unknown style", fmt.Errorf("reset: %w", render.ErrUnknownStyle), protocol.CodeUnknownStyle},
		{"other", errors.New("boom"), protocol.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeFor(tt.err); got != tt.want {
				t.Errorf("CodeFor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSendToNonexistentSource(t *testing.T) {
	hub := NewHub()

	err := hub.Reject("nonexistent", 1, expression.ErrInvalidInput)
	if !errors.Is(err, ErrSourceNotConnected) {
		t.Errorf("Reject() error = %v, want ErrSourceNotConnected", err)
	}
}

func TestBroadcast(t *testing.T) {
	hub := NewHub()

	// Broadcast to empty hub should not panic
	msg, _ := protocol.NewMessage(protocol.TypePing, nil)
	hub.Broadcast(msg)
}

func startServer(t *testing.T, hub *Hub, port int) string {
	t.Helper()
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	hub.RegisterRoutes(app)

	go app.Listen(fmt.Sprintf(":%d", port))
	t.Cleanup(func() { app.Shutdown() })
	time.Sleep(100 * time.Millisecond)

	return fmt.Sprintf("ws://localhost:%d", port)
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readMessage(t *testing.T, ws *websocket.Conn) protocol.Message {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	return msg
}

func TestWebSocketConnection(t *testing.T) {
	hub := NewHub()
	base := startServer(t, hub, 18180)

	ws := dial(t, base+"/ws/detector/test-cam")

	// Wait for connection to be registered
	time.Sleep(50 * time.Millisecond)

	if hub.SourceCount() != 1 {
		t.Errorf("SourceCount = %d, want 1", hub.SourceCount())
	}
	if hub.GetSource("test-cam") == nil {
		t.Error("GetSource should return the connected source")
	}

	// Close and verify disconnect
	ws.Close()
	time.Sleep(100 * time.Millisecond)

	if hub.SourceCount() != 0 {
		t.Errorf("SourceCount = %d, want 0 after disconnect", hub.SourceCount())
	}
}

func TestGeneratedSourceID(t *testing.T) {
	hub := NewHub()
	base := startServer(t, hub, 18181)

	dial(t, base+"/ws/detector")
	time.Sleep(50 * time.Millisecond)

	sources := hub.GetSources()
	if len(sources) != 1 {
		t.Fatalf("len(sources) = %d, want 1", len(sources))
	}
	if len(sources[0].ID) != 36 {
		t.Errorf("ID = %q, want a uuid", sources[0].ID)
	}
}

func TestLandmarksCallback(t *testing.T) {
	hub := NewHub()

	var received atomic.Bool
	var mu sync.Mutex
	var gotSource string
	var gotLen int

	hub.OnLandmarks(func(sourceID string, data *protocol.LandmarksData) {
		mu.Lock()
		gotSource = sourceID
		gotLen = data.Primary().Len()
		mu.Unlock()
		received.Store(true)
	})

	base := startServer(t, hub, 18182)
	ws := dial(t, base+"/ws/detector/frame-test")

	face := make(landmark.Set, landmark.MeshSize)
	msg, _ := protocol.NewLandmarksMessage(1, face)
	data, _ := msg.Bytes()
	ws.WriteMessage(websocket.TextMessage, data)

	time.Sleep(100 * time.Millisecond)

	if !received.Load() {
		t.Fatal("Landmarks callback should have been called")
	}
	mu.Lock()
	defer mu.Unlock()
	if gotSource != "frame-test" {
		t.Errorf("source = %s, want frame-test", gotSource)
	}
	if gotLen != landmark.MeshSize {
		t.Errorf("len = %d, want %d", gotLen, landmark.MeshSize)
	}

	stats := hub.GetStats()
	if stats.FramesReceived < 1 {
		t.Error("FramesReceived should be at least 1")
	}
	infos := hub.GetSourceInfos()
	if len(infos) != 1 || infos[0].Frames != 1 {
		t.Errorf("infos = %+v, want one source with one frame", infos)
	}
}

func TestRejectSendsError(t *testing.T) {
	hub := NewHub()
	base := startServer(t, hub, 18183)
	ws := dial(t, base+"/ws/detector/reject-test")
	time.Sleep(50 * time.Millisecond)

	cause := fmt.Errorf("%w: landmark set too short", expression.ErrInvalidInput)
	if err := hub.Reject("reject-test", 5, cause); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}

	msg := readMessage(t, ws)
	if msg.Type != protocol.TypeError {
		t.Fatalf("Type = %s, want error", msg.Type)
	}
	data, _ := msg.GetErrorData()
	if data.Code != protocol.CodeInvalidInput || data.FrameID != 5 {
		t.Errorf("error data = %+v", data)
	}
}

func TestBadMessageReply(t *testing.T) {
	hub := NewHub()
	base := startServer(t, hub, 18184)
	ws := dial(t, base+"/ws/detector/bad")

	ws.WriteMessage(websocket.TextMessage, []byte("not json"))

	msg := readMessage(t, ws)
	if msg.Type != protocol.TypeError {
		t.Fatalf("Type = %s, want error", msg.Type)
	}
	data, _ := msg.GetErrorData()
	if data.Code != protocol.CodeBadMessage {
		t.Errorf("Code = %s, want %s", data.Code, protocol.CodeBadMessage)
	}
	if hub.GetStats().ParseErrors != 1 {
		t.Errorf("ParseErrors = %d, want 1", hub.GetStats().ParseErrors)
	}
}

func TestResetCallback(t *testing.T) {
	hub := NewHub()

	var style atomic.Value
	hub.OnReset(func(sourceID string, s string) error {
		if _, err := render.ParseStyle(s); err != nil {
			return err
		}
		style.Store(s)
		return nil
	})

	base := startServer(t, hub, 18185)
	ws := dial(t, base+"/ws/detector/reset-test")

	msg, _ := protocol.NewResetMessage("basic")
	data, _ := msg.Bytes()
	ws.WriteMessage(websocket.TextMessage, data)
	time.Sleep(100 * time.Millisecond)

	if got, _ := style.Load().(string); got != "basic" {
		t.Errorf("reset style = %q, want basic", got)
	}

	// unknown style is reported back
	msg, _ = protocol.NewResetMessage("cubist")
	data, _ = msg.Bytes()
	ws.WriteMessage(websocket.TextMessage, data)

	reply := readMessage(t, ws)
	errData, _ := reply.GetErrorData()
	if reply.Type != protocol.TypeError || errData.Code != protocol.CodeUnknownStyle {
		t.Errorf("reply = %s %+v, want unknown_style error", reply.Type, errData)
	}
}

func TestPingPong(t *testing.T) {
	hub := NewHub()
	base := startServer(t, hub, 18186)
	ws := dial(t, base+"/ws/detector/ping-test")

	time.Sleep(50 * time.Millisecond)

	// Send ping
	msg, _ := protocol.NewPingMessage("p1")
	data, _ := msg.Bytes()
	ws.WriteMessage(websocket.TextMessage, data)

	resp := readMessage(t, ws)
	if resp.Type != protocol.TypePong {
		t.Errorf("Type = %s, want pong", resp.Type)
	}
	pong, _ := resp.GetPongData()
	if pong.ID != "p1" {
		t.Errorf("pong ID = %q, want p1", pong.ID)
	}
}

func TestMalformedPingReply(t *testing.T) {
	hub := NewHub()
	base := startServer(t, hub, 18187)
	ws := dial(t, base+"/ws/detector/bad-ping")

	ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping","data":"p1"}`))

	resp := readMessage(t, ws)
	if resp.Type != protocol.TypeError {
		t.Fatalf("Type = %s, want error", resp.Type)
	}
	data, _ := resp.GetErrorData()
	if data.Code != protocol.CodeBadMessage {
		t.Errorf("Code = %s, want %s", data.Code, protocol.CodeBadMessage)
	}
	if hub.GetStats().ParseErrors != 1 {
		t.Errorf("ParseErrors = %d, want 1", hub.GetStats().ParseErrors)
	}
}

func TestAPIListSources(t *testing.T) {
	hub := NewHub()
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	hub.RegisterRoutes(app)
	hub.RegisterAPIRoutes(app.Group("/api"))

	req := httptest.NewRequest("GET", "/api/sources/", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "sources") {
		t.Error("Response should contain 'sources' field")
	}
}

func TestAPIStats(t *testing.T) {
	hub := NewHub()
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	hub.RegisterAPIRoutes(app.Group("/api"))

	req := httptest.NewRequest("GET", "/api/sources/stats", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}
}

func TestUpgradeRequired(t *testing.T) {
	hub := NewHub()
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	hub.RegisterRoutes(app)

	req := httptest.NewRequest("GET", "/ws/detector", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("Status = %d, want 426", resp.StatusCode)
	}
}
