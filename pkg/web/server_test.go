package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/teslashibe/go-facecap/pkg/ingest"
	"github.com/teslashibe/go-facecap/pkg/landmark"
	"github.com/teslashibe/go-facecap/pkg/pipeline"
	"github.com/teslashibe/go-facecap/pkg/protocol"
	"github.com/teslashibe/go-facecap/pkg/render"
)

type pngRecorder struct {
	*render.Recorder
}

func (pngRecorder) Encode() ([]byte, string, error) {
	return []byte("\x89PNG"), "image/png", nil
}

func smilingFace() landmark.Set {
	s := make(landmark.Set, landmark.MeshSize)
	for i := range s {
		s[i] = landmark.Landmark{X: 0.5, Y: 0.5}
	}
	s[landmark.LeftEyeTop] = landmark.Landmark{X: 0.4, Y: 0.40}
	s[landmark.LeftEyeBottom] = landmark.Landmark{X: 0.4, Y: 0.42}
	s[landmark.RightEyeTop] = landmark.Landmark{X: 0.6, Y: 0.40}
	s[landmark.RightEyeBottom] = landmark.Landmark{X: 0.6, Y: 0.42}
	s[landmark.UpperLip] = landmark.Landmark{X: 0.5, Y: 0.52}
	s[landmark.LowerLip] = landmark.Landmark{X: 0.5, Y: 0.54}
	s[landmark.MouthLeft] = landmark.Landmark{X: 0.46, Y: 0.50}
	s[landmark.MouthRight] = landmark.Landmark{X: 0.54, Y: 0.50}
	return s
}

func newTestServer(t *testing.T, surface render.Surface) *Server {
	t.Helper()
	p, err := pipeline.New(pipeline.DefaultConfig(), surface)
	if err != nil {
		t.Fatalf("pipeline.New() error = %v", err)
	}
	cfg := DefaultConfig()
	cfg.StaticDir = ""
	cfg.AccessLog = false
	return NewServer(cfg, Deps{Pipeline: p, Ingest: ingest.NewHub()})
}

func do(t *testing.T, s *Server, method, path string, body []byte) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func frameBody(t *testing.T, set landmark.Set) []byte {
	t.Helper()
	data, err := json.Marshal(protocol.LandmarksData{FrameID: 1, Faces: [][]landmark.Landmark{set}})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	return data
}

func TestHandleState(t *testing.T) {
	s := newTestServer(t, render.NewRecorder(400, 400))

	resp, body := do(t, s, "GET", "/api/state", nil)
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}

	var got StateResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if got.Style != render.StyleEnhanced {
		t.Errorf("Style = %v, want enhanced", got.Style)
	}
	if got.State != render.Enhanced().DefaultState() {
		t.Errorf("State = %+v, want default", got.State)
	}
	if !strings.Contains(string(body), `"faceRadius":120`) {
		t.Errorf("body missing embedded layout: %s", body)
	}
}

func TestHandleFrame(t *testing.T) {
	tests := []struct {
		name        string
		body        []byte
		wantStatus  int
		wantOutcome string
		wantSmiling bool
	}{
		{
			name:        "smiling face",
			body:        frameBody(t, smilingFace()),
			wantStatus:  200,
			wantOutcome: "rendered",
			wantSmiling: true,
		},
		{
			name:        "no face",
			body:        []byte(`{"frame_id":2,"faces":[]}`),
			wantStatus:  200,
			wantOutcome: "skipped",
		},
		{
			name:       "short mesh",
			body:       frameBody(t, smilingFace()[:50]),
			wantStatus: 422,
		},
		{
			name:       "malformed body",
			body:       []byte(`{"faces":`),
			wantStatus: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, render.NewRecorder(400, 400))

			resp, body := do(t, s, "POST", "/api/frame", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("Status = %d, want %d (%s)", resp.StatusCode, tt.wantStatus, body)
			}
			if tt.wantStatus != 200 {
				return
			}

			var got struct {
				Outcome string `json:"outcome"`
				State   struct {
					IsSmiling bool `json:"isSmiling"`
				} `json:"state"`
			}
			if err := json.Unmarshal(body, &got); err != nil {
				t.Fatalf("Unmarshal error: %v", err)
			}
			if got.Outcome != tt.wantOutcome {
				t.Errorf("outcome = %q, want %q", got.Outcome, tt.wantOutcome)
			}
			if got.State.IsSmiling != tt.wantSmiling {
				t.Errorf("isSmiling = %v, want %v", got.State.IsSmiling, tt.wantSmiling)
			}
		})
	}
}

func TestHandleFrame_InvalidInputCode(t *testing.T) {
	s := newTestServer(t, render.NewRecorder(400, 400))

	_, body := do(t, s, "POST", "/api/frame", frameBody(t, smilingFace()[:50]))

	var got ErrorResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if got.Code != protocol.CodeInvalidInput {
		t.Errorf("Code = %q, want %q", got.Code, protocol.CodeInvalidInput)
	}
}

func TestHandleReset(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantStyle  render.Style
	}{
		{"basic", `{"style":"basic"}`, 200, render.StyleBasic},
		{"case insensitive", `{"style":"ENHANCED"}`, 200, render.StyleEnhanced},
		{"unknown style", `{"style":"cubist"}`, 400, render.StyleEnhanced},
		{"missing style", `{}`, 400, render.StyleEnhanced},
		{"malformed", `{`, 400, render.StyleEnhanced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, render.NewRecorder(400, 400))

			resp, body := do(t, s, "POST", "/api/reset", []byte(tt.body))
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("Status = %d, want %d (%s)", resp.StatusCode, tt.wantStatus, body)
			}
			if got := s.pipeline.Style(); got != tt.wantStyle {
				t.Errorf("Style() = %v, want %v", got, tt.wantStyle)
			}
		})
	}
}

func TestHandleReset_RestoresDefaults(t *testing.T) {
	s := newTestServer(t, render.NewRecorder(400, 400))
	do(t, s, "POST", "/api/frame", frameBody(t, smilingFace()))
	if !s.pipeline.State().IsSmiling {
		t.Fatal("precondition: face should be smiling")
	}

	do(t, s, "POST", "/api/reset", []byte(`{"style":"basic"}`))

	if got := s.pipeline.State(); got != render.Basic().DefaultState() {
		t.Errorf("State() = %+v, want basic default", got)
	}
}

func TestHandleFaceImage(t *testing.T) {
	s := newTestServer(t, render.NewRecorder(400, 400))
	resp, _ := do(t, s, "GET", "/api/face.png", nil)
	if resp.StatusCode != 404 {
		t.Errorf("Status = %d, want 404 without an encoder", resp.StatusCode)
	}

	s = newTestServer(t, pngRecorder{render.NewRecorder(400, 400)})
	resp, body := do(t, s, "GET", "/api/face.png", nil)
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if !bytes.HasPrefix(body, []byte("\x89PNG")) {
		t.Errorf("body = %q, want PNG data", body)
	}
}

func TestHandleScene(t *testing.T) {
	s := newTestServer(t, render.NewRecorder(400, 400))

	resp, body := do(t, s, "GET", "/api/scene", nil)
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}

	var scene []struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(body, &scene); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if len(scene) == 0 {
		t.Fatal("scene should not be empty")
	}
	for i, p := range scene {
		if p.Kind == "" {
			t.Errorf("primitive %d has no kind", i)
		}
	}
}

func TestHandleStats(t *testing.T) {
	s := newTestServer(t, render.NewRecorder(400, 400))
	do(t, s, "POST", "/api/frame", frameBody(t, smilingFace()))

	resp, body := do(t, s, "GET", "/api/stats", nil)
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}

	var got StatsResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if got.Pipeline.Processed != 1 {
		t.Errorf("Processed = %d, want 1", got.Pipeline.Processed)
	}
	if got.Ingest == nil {
		t.Error("Ingest stats should be present")
	}
	if len(got.Hubs) != 2 {
		t.Errorf("len(Hubs) = %d, want 2", len(got.Hubs))
	}
}

func TestIngestRoutesMounted(t *testing.T) {
	s := newTestServer(t, render.NewRecorder(400, 400))

	resp, _ := do(t, s, "GET", "/api/sources/stats", nil)
	if resp.StatusCode != 200 {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	s := newTestServer(t, render.NewRecorder(400, 400))

	for _, path := range []string{"/ws/state", "/ws/face", "/ws/detector"} {
		resp, _ := do(t, s, "GET", path, nil)
		if resp.StatusCode != 426 {
			t.Errorf("%s: Status = %d, want 426", path, resp.StatusCode)
		}
	}
}

func TestStaticDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>facecap</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}

	p, _ := pipeline.New(pipeline.DefaultConfig(), render.NewRecorder(400, 400))
	s := NewServer(Config{StaticDir: dir}, Deps{Pipeline: p})

	resp, body := do(t, s, "GET", "/", nil)
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), "facecap") {
		t.Errorf("body = %q", body)
	}
}
