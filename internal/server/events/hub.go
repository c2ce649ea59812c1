// Package events implements the in-process pub/sub hub fanning out domain
// events to live client sessions.
package events

import (
	"context"
	"sync"
	"time"

	"unidrive/internal/logging"
	"unidrive/internal/server/models"
)

// Emitter delivers one event to one live session. Implementations are
// expected to be non-blocking; a slow emitter delays delivery to every
// other session because the broadcast loop holds the hub lock.
type Emitter interface {
	Emit(event models.Event) error
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(event models.Event) error

func (f EmitterFunc) Emit(event models.Event) error { return f(event) }

// Hub keeps a per-user registry of live session emitters and fans domain
// events out to them. One mutex guards the registry and the per-kind
// sequence counters; its scope equals the broadcast loop.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]map[string]Emitter // userID -> sessionToken -> emitter
	counters    map[models.EventKind]int64

	interval time.Duration
	logger   logging.Logger
}

// NewHub constructs a hub with the given keep-alive interval.
func NewHub(logger logging.Logger, interval time.Duration) *Hub {
	return &Hub{
		subscribers: make(map[string]map[string]Emitter),
		counters:    make(map[models.EventKind]int64),
		interval:    interval,
		logger:      logger.With("module", "event_hub"),
	}
}

// Subscribe registers a session emitter for userID. An existing entry for
// the same (userID, sessionToken) is replaced: a reconnecting client keeps
// its token and only the emitter changes.
func (h *Hub) Subscribe(userID, sessionToken string, emitter Emitter) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions, ok := h.subscribers[userID]
	if !ok {
		sessions = make(map[string]Emitter)
		h.subscribers[userID] = sessions
	}
	sessions[sessionToken] = emitter
}

// Unsubscribe removes a session entry. Idempotent.
func (h *Hub) Unsubscribe(userID, sessionToken string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(userID, sessionToken)
}

func (h *Hub) removeLocked(userID, sessionToken string) {
	sessions, ok := h.subscribers[userID]
	if !ok {
		return
	}
	delete(sessions, sessionToken)
	if len(sessions) == 0 {
		delete(h.subscribers, userID)
	}
}

// Publish assigns the event's per-kind sequence id and delivers it to every
// session of every target user. A per-session emission failure is logged
// and does not abort delivery to other sessions; teardown of dead sessions
// is the transport callbacks' job, not Publish's.
func (h *Hub) Publish(ctx context.Context, targetUserIDs []string, kind models.EventKind, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.counters[kind]++
	event := models.Event{Kind: kind, Seq: h.counters[kind], Payload: payload}

	for _, userID := range targetUserIDs {
		for token, emitter := range h.subscribers[userID] {
			if err := emitter.Emit(event); err != nil {
				h.logger.Warn(ctx, "event emission failed",
					"kind", kind, "user", userID, "session", token, "err", err)
			}
		}
	}
}

// SessionCount returns the number of live sessions for userID.
func (h *Hub) SessionCount(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[userID])
}

// Run emits keep-alive frames to all subscribed sessions at the configured
// interval until ctx is cancelled. A session whose emitter fails during
// keep-alive is pruned; the heartbeat doubles as dead-connection detection.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.keepAlive(ctx)
		}
	}
}

func (h *Hub) keepAlive(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.subscribers) == 0 {
		return
	}

	// keep-alive is unnumbered
	event := models.Event{Kind: models.EventKeepAlive}

	type dead struct{ user, token string }
	var pruned []dead

	for userID, sessions := range h.subscribers {
		for token, emitter := range sessions {
			if err := emitter.Emit(event); err != nil {
				pruned = append(pruned, dead{user: userID, token: token})
			}
		}
	}

	for _, d := range pruned {
		h.removeLocked(d.user, d.token)
		h.logger.Info(ctx, "pruned dead session", "user", d.user, "session", d.token)
	}
}
