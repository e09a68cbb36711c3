// Package hub fans dashboard updates out to every connected websocket
// client. One hub carries status snapshots, another carries preview JPEGs.
package hub

import "github.com/gofiber/websocket/v2"

// MessageType selects the websocket frame a payload is written as.
type MessageType int

const (
	// JSONMessage carries an encoded status snapshot in a text frame.
	JSONMessage MessageType = iota
	// BinaryMessage carries an encoded preview image in a binary frame.
	BinaryMessage
)

// frameType is the websocket opcode used to write t.
func (t MessageType) frameType() int {
	if t == BinaryMessage {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// Message is one payload queued for every client of a hub. Data is shared
// between clients and must not be modified after it is queued.
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage wraps already encoded JSON.
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage wraps an encoded frame.
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}
