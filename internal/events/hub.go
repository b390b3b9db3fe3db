// Package events is the in-process progress feed for resolution runs.
// The pipeline publishes per-session events; the HTTP API streams them
// to review-inbox clients over SSE.
package events

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/identity-cli/internal/model"
)

// Type enumerates the progress event kinds.
type Type string

const (
	TypeNodeStart      Type = "node_start"
	TypeNodeComplete   Type = "node_complete"
	TypePlatformResult Type = "platform_result"
	TypeIdentityFound  Type = "identity_found"
	TypeComplete       Type = "complete"
	TypeError          Type = "error"
)

// Event is one progress notification for a session.
type Event struct {
	Type      Type           `json:"type"`
	Node      string         `json:"node,omitempty"`
	Platform  model.Platform `json:"platform,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Sink accepts events for a session. The pipeline holds a Sink so the
// worker can run without a hub attached.
type Sink interface {
	Publish(sessionID string, ev Event)
}

// subscriber buffer; a slow SSE client drops events rather than
// stalling the pipeline.
const subscriberBuffer = 64

// Hub fans session events out to subscribers. Safe for concurrent use.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
	log  *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.L()
	}
	return &Hub{subs: make(map[string]map[chan Event]struct{}), log: log}
}

// Subscribe registers a listener for one session's events. The returned
// cancel func must be called when the client disconnects.
func (h *Hub) Subscribe(sessionID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[chan Event]struct{})
	}
	h.subs[sessionID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[sessionID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, sessionID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to the session's subscribers. Delivery is
// best-effort: a full subscriber channel drops the event.
func (h *Hub) Publish(sessionID string, ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[sessionID] {
		select {
		case ch <- ev:
		default:
			h.log.Debug("events: subscriber buffer full, dropping event",
				zap.String("session", sessionID), zap.String("type", string(ev.Type)))
		}
	}
}

// SubscriberCount reports active listeners for a session.
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}
