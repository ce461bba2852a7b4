// facecap-replay - plays a recorded landmark session into a running facecap
// server, or renders it offline to PNG frames.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	flog "github.com/teslashibe/go-facecap/internal/log"
	"github.com/teslashibe/go-facecap/pkg/pipeline"
	"github.com/teslashibe/go-facecap/pkg/protocol"
	"github.com/teslashibe/go-facecap/pkg/render"
	"github.com/teslashibe/go-facecap/pkg/replay"
	"github.com/teslashibe/go-facecap/pkg/surface/ggsurface"
)

func main() {
	server := flag.String("server", "ws://localhost:8090/ws/detector/replay", "Detector endpoint of a facecap server")
	speed := flag.Float64("speed", 1, "Playback speed (0 = as fast as possible)")
	offline := flag.String("offline", "", "Render frames to PNGs in this directory instead of streaming")
	style := flag.String("style", "enhanced", "Render style for offline mode")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: facecap-replay [flags] session.jsonl")
		os.Exit(2)
	}
	flog.Init("info")

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer f.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	player := &replay.Player{Speed: *speed}
	reader := replay.NewReader(f)

	var n int
	if *offline != "" {
		n, err = renderOffline(ctx, player, reader, *offline, *style)
	} else {
		n, err = stream(ctx, player, reader, *server)
	}
	if err != nil && ctx.Err() == nil {
		log.Fatalf("❌ Replay failed after %d frames: %v", n, err)
	}
	fmt.Printf("✅ Played %d frames\n", n)
}

// stream sends each record as a landmarks message and logs error replies.
func stream(ctx context.Context, player *replay.Player, reader *replay.Reader, url string) (int, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return 0, fmt.Errorf("dial %s: %w", url, err)
	}
	defer ws.Close()
	fmt.Printf("📡 Connected to %s\n", url)

	go func() {
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			msg, err := protocol.ParseMessage(data)
			if err != nil || msg.Type != protocol.TypeError {
				continue
			}
			if e, err := msg.GetErrorData(); err == nil {
				flog.Warn("⚠️  frame rejected", "frame", e.FrameID, "code", e.Code, "message", e.Message)
			}
		}
	}()

	n, err := player.Play(ctx, reader, func(rec replay.Record) error {
		msg, err := protocol.NewMessage(protocol.TypeLandmarks, rec.LandmarksData)
		if err != nil {
			return err
		}
		data, err := msg.Bytes()
		if err != nil {
			return err
		}
		ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
		return ws.WriteMessage(websocket.TextMessage, data)
	})

	ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return n, err
}

// renderOffline runs the recording through a local pipeline, saving one PNG
// per rendered frame.
func renderOffline(ctx context.Context, player *replay.Player, reader *replay.Reader, dir, styleName string) (int, error) {
	style, err := render.ParseStyle(styleName)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	saved := 0
	save := pipeline.SinkFunc(func(_ context.Context, r pipeline.Result) error {
		if len(r.Image) == 0 {
			return nil
		}
		saved++
		return os.WriteFile(filepath.Join(dir, fmt.Sprintf("frame_%06d.png", saved)), r.Image, 0o644)
	})

	cfg := pipeline.DefaultConfig()
	cfg.Style = style
	p, err := pipeline.New(cfg, ggsurface.New(400, 400), pipeline.WithSink(save))
	if err != nil {
		return 0, err
	}

	n, err := player.Play(ctx, reader, func(rec replay.Record) error {
		_, err := p.ProcessFrame(ctx, pipeline.Frame{Source: "replay", ID: rec.FrameID, Landmarks: rec.Primary()})
		if err != nil {
			flog.Warn("⚠️  frame rejected", "frame", rec.FrameID, "error", err)
		}
		return nil
	})
	fmt.Printf("🖼️  Saved %d frames to %s\n", saved, dir)
	return n, err
}
