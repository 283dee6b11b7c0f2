package realtime

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	// Client to server
	MessageTypeSyncState MessageType = "SYNC_STATE"

	// Server to client
	MessageTypeSnapshot   MessageType = "SNAPSHOT"
	MessageTypeChatter    MessageType = "CHATTER"
	MessageTypeStateSync  MessageType = "STATE_SYNC"
	MessageTypeError      MessageType = "ERROR"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
