package services

import (
	"sync"
	"time"
)

// StatusChangeEvent is pushed to SSE clients when automation moves a work item.
type StatusChangeEvent struct {
	EntityType string    `json:"entity_type"`
	EntityID   uint      `json:"entity_id"`
	ProjectID  uint      `json:"project_id"`
	OldStatus  string    `json:"old_status"`
	NewStatus  string    `json:"new_status"`
	Percentage int       `json:"percentage"`
	RuleID     uint      `json:"rule_id"`
	ChangedAt  time.Time `json:"changed_at"`
}

// SSEHub fans events out to connected clients
type SSEHub struct {
	clients map[string]chan StatusChangeEvent
	mu      sync.RWMutex
}

func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[string]chan StatusChangeEvent),
	}
}

// Subscribe registers a client and returns its event channel
func (h *SSEHub) Subscribe(clientID string) <-chan StatusChangeEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan StatusChangeEvent, 100)
	h.clients[clientID] = ch
	return ch
}

func (h *SSEHub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[clientID]; ok {
		close(ch)
		delete(h.clients, clientID)
	}
}

// Publish broadcasts an event; clients with a full buffer miss it.
func (h *SSEHub) Publish(event StatusChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.clients {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *SSEHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var globalSSEHub *SSEHub
var sseHubOnce sync.Once

// GetSSEHub returns the global SSE hub singleton
func GetSSEHub() *SSEHub {
	sseHubOnce.Do(func() {
		globalSSEHub = NewSSEHub()
	})
	return globalSSEHub
}
