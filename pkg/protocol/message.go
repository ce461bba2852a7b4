// Package protocol defines the WebSocket message types exchanged between
// landmark detectors, the facecap server and its viewers.
package protocol

import (
	stdjson "encoding/json"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/teslashibe/go-facecap/pkg/expression"
	"github.com/teslashibe/go-facecap/pkg/landmark"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Detector → Server messages
	TypeLandmarks MessageType = "landmarks" // Face mesh for one frame
	TypeReset     MessageType = "reset"     // Switch style, restore defaults

	// Server → Client messages
	TypeFaceState MessageType = "face_state" // Classified expression
	TypeError     MessageType = "error"      // Frame rejected

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Error codes carried in ErrorData.
const (
	CodeInvalidInput = "invalid_input"
	CodeBadMessage   = "bad_message"
	CodeUnknownStyle = "unknown_style"
	CodeInternal     = "internal"
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType        `json:"type"`
	Timestamp int64              `json:"ts,omitempty"` // Unix milliseconds
	Data      stdjson.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData stdjson.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Message payloads
// =============================================================================

// LandmarksData is one detector frame. Faces holds one mesh per detected
// face; only the first is classified.
type LandmarksData struct {
	FrameID uint64                `json:"frame_id,omitempty"`
	Faces   [][]landmark.Landmark `json:"faces"`
}

// Primary returns the first face, or an empty set when none was detected.
func (d *LandmarksData) Primary() landmark.Set {
	if d == nil || len(d.Faces) == 0 {
		return nil
	}
	return landmark.Set(d.Faces[0])
}

// FaceStateData is a classified frame pushed to viewers and sinks.
type FaceStateData struct {
	FrameID uint64               `json:"frame_id,omitempty"`
	Style   string               `json:"style"`
	State   expression.FaceState `json:"state"`
}

// ResetData selects the style to reset to.
type ResetData struct {
	Style string `json:"style"`
}

// ErrorData reports a rejected message or frame.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	FrameID uint64 `json:"frame_id,omitempty"`
}

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewLandmarksMessage creates a landmarks message for a single face
func NewLandmarksMessage(frameID uint64, faces ...landmark.Set) (*Message, error) {
	data := LandmarksData{FrameID: frameID, Faces: make([][]landmark.Landmark, 0, len(faces))}
	for _, f := range faces {
		data.Faces = append(data.Faces, []landmark.Landmark(f))
	}
	return NewMessage(TypeLandmarks, data)
}

// NewFaceStateMessage creates a face state message
func NewFaceStateMessage(frameID uint64, style string, state expression.FaceState) (*Message, error) {
	return NewMessage(TypeFaceState, FaceStateData{
		FrameID: frameID,
		Style:   style,
		State:   state,
	})
}

// NewResetMessage creates a reset message
func NewResetMessage(style string) (*Message, error) {
	return NewMessage(TypeReset, ResetData{Style: style})
}

// NewErrorMessage creates an error message
func NewErrorMessage(code, message string, frameID uint64) (*Message, error) {
	return NewMessage(TypeError, ErrorData{
		Code:    code,
		Message: message,
		FrameID: frameID,
	})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetLandmarksData extracts landmarks from a message
func (m *Message) GetLandmarksData() (*LandmarksData, error) {
	var data LandmarksData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetFaceStateData extracts a face state from a message
func (m *Message) GetFaceStateData() (*FaceStateData, error) {
	var data FaceStateData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetResetData extracts reset data from a message
func (m *Message) GetResetData() (*ResetData, error) {
	var data ResetData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetErrorData extracts error data from a message
func (m *Message) GetErrorData() (*ErrorData, error) {
	var data ErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
