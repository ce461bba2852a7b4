package pipeline

import (
	"context"

	"github.com/teslashibe/go-facecap/pkg/hub"
	"github.com/teslashibe/go-facecap/pkg/protocol"
)

// HubSink broadcasts face states and encoded frames to websocket viewers.
// Either hub may be nil.
type HubSink struct {
	States *hub.Hub
	Frames *hub.Hub
}

// Publish implements Sink.
func (s HubSink) Publish(_ context.Context, r Result) error {
	if s.States != nil {
		msg, err := protocol.NewFaceStateMessage(r.FrameID, string(r.Style), r.State)
		if err != nil {
			return err
		}
		data, err := msg.Bytes()
		if err != nil {
			return err
		}
		s.States.Broadcast(hub.StateMessage(data))
	}
	if s.Frames != nil && len(r.Image) > 0 {
		s.Frames.BroadcastBinary(r.Image)
	}
	return nil
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, r Result) error

// Publish implements Sink.
func (f SinkFunc) Publish(ctx context.Context, r Result) error {
	return f(ctx, r)
}
