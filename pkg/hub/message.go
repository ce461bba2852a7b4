// Package hub fans messages out to websocket viewers. Each hub keeps the
// last state message so late viewers start from the current face.
package hub

import "github.com/gofiber/websocket/v2"

// Kind is the payload class of a Message.
type Kind uint8

const (
	KindState Kind = iota // JSON face state, retained for replay
	KindFrame             // encoded image bytes
)

// Opcode is the websocket frame type the kind is written as.
func (k Kind) Opcode() int {
	if k == KindFrame {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

func (k Kind) String() string {
	if k == KindFrame {
		return "frame"
	}
	return "state"
}

// Message is one broadcast payload. Data is shared by every client and
// must not be modified after Broadcast.
type Message struct {
	Kind Kind
	Data []byte
}

// StateMessage wraps pre-encoded JSON.
func StateMessage(data []byte) Message { return Message{Kind: KindState, Data: data} }

// FrameMessage wraps an encoded image.
func FrameMessage(data []byte) Message { return Message{Kind: KindFrame, Data: data} }
