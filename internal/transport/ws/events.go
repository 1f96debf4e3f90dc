package ws

import (
	"encoding/json"
	"time"
)

// Event types - Client → Server
const (
	EventTypeJoinRoom = "join-room"
	EventTypePing     = "ping"
)

// Event types - Server → Client
const (
	EventTypeJoined = "joined"
	EventTypePong   = "pong"
	EventTypeError  = "error"

	taskUpdatedPrefix = "task-updated-"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TaskUpdatedEvent is the event type an identity's sessions listen on.
func TaskUpdatedEvent(identity string) string {
	return taskUpdatedPrefix + identity
}

// NewEvent creates a server→client event with the current timestamp.
// A nil payload is omitted.
func NewEvent(eventType string, payload any) (*Event, error) {
	evt := &Event{
		Type:      eventType,
		Timestamp: time.Now().Unix(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		evt.Payload = data
	}
	return evt, nil
}
