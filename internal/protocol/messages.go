package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeSendMessage    MessageType = "send_message"
	TypeReceiveMessage MessageType = "receive_message"
	TypeSystemEvent    MessageType = "system_event"
	TypeErrorEvent     MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// SendMessage is the single inbound variant. UserInput carries the text
// used for intent classification; Message carries the full raw payload
// (identical to UserInput for plain chat, a JSON document for detail
// submissions). An empty Message falls back to UserInput downstream.
type SendMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	UserInput string      `json:"user_input"`
	Message   string      `json:"message"`
	TSMs      int64       `json:"ts_ms"`
}

// ReceiveMessage carries a chat message pushed back to the client.
type ReceiveMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Sender    string      `json:"sender"`
	Text      string      `json:"text"`
	TSMs      int64       `json:"ts_ms"`
}

type SystemEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Detail    string      `json:"detail,omitempty"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Source    string      `json:"source"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

// ParseClientMessage decodes and validates an inbound frame. Unknown
// types are rejected with ErrUnsupportedType so the connection loop can
// answer with an error_event instead of dropping the socket.
func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeSendMessage:
		var msg SendMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" {
			return nil, errors.New("invalid send_message: missing session_id")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
