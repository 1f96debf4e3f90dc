package ws

import (
	"encoding/json"
	"log/slog"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub    *Hub
	logger *slog.Logger
}

func NewHubNotifier(hub *Hub, logger *slog.Logger) *HubNotifier {
	return &HubNotifier{hub: hub, logger: logger}
}

// NotifyTasksChanged sends a payload-less task-updated-<identity> event to
// the identity's group. Clients are expected to re-fetch.
func (n *HubNotifier) NotifyTasksChanged(identity string) {
	evt, err := NewEvent(TaskUpdatedEvent(identity), nil)
	if err != nil {
		n.logger.Error("ws notifier: building event", "error", err)
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		n.logger.Error("ws notifier: marshal error", "error", err)
		return
	}
	n.hub.Broadcast(identity, data)
}
