package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Entities named in change notifications.
const (
	EntityTeam       = "team_member"
	EntityChore      = "chore"
	EntityRecurring  = "recurring_chore"
	EntityCompletion = "completion"
	EntityState      = "state"
	EntityData       = "data"
	EntityBackup     = "backup"
)

const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionDeleted   = "deleted"
	ActionConverted = "converted"
	ActionImported  = "imported"
	ActionReset     = "reset"
	ActionStatus    = "status"
)

// Message tells open tabs that something changed and they should refetch.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     string         `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
	At     time.Time      `json:"at"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action, id string, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
		At:     time.Now().UTC(),
	}
}

// Hub fans change notifications out to every connected client.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger.With("component", "websocket"),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client connected", "clients", n)
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client disconnected", "clients", n)
}

// Broadcast sends msg to every client. Clients whose buffer is full miss it.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("broadcast dropped", "type", msg.Type, "clients", dropped)
	}
}

// Publish builds and broadcasts a message in one call.
func (h *Hub) Publish(entity, action, id string, extra map[string]any) {
	h.Broadcast(NewMessage(entity, action, id, extra))
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
