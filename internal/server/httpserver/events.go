package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"unidrive/internal/server/models"
)

// sseEmitter writes events in text/event-stream framing. Writes are
// serialized with a mutex because the hub and the keep-alive loop emit from
// different goroutines.
type sseEmitter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEEmitter(w http.ResponseWriter, flusher http.Flusher) *sseEmitter {
	return &sseEmitter{w: w, flusher: flusher}
}

func (e *sseEmitter) Emit(event models.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := fmt.Fprintf(e.w, "event: %s\n", event.Kind); err != nil {
		return err
	}
	if event.Seq > 0 {
		if _, err := fmt.Fprintf(e.w, "id: %s\n", strconv.FormatInt(event.Seq, 10)); err != nil {
			return err
		}
	}

	data := []byte("{}")
	if event.Payload != nil {
		encoded, err := json.Marshal(event.Payload)
		if err != nil {
			return err
		}
		data = encoded
	}
	if _, err := fmt.Fprintf(e.w, "data: %s\n\n", data); err != nil {
		return err
	}

	e.flusher.Flush()
	return nil
}

// handleEvents upgrades the request to a server-sent-events stream and
// subscribes it on the hub under the caller's bearer token. The
// subscription lives exactly as long as the request context.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, "unauthorized")
		return
	}
	token, ok := tokenFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, "unauthorized")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondBadRequest(w, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	emitter := newSSEEmitter(w, flusher)
	s.hub.Subscribe(user.ID, token, emitter)
	defer s.hub.Unsubscribe(user.ID, token)

	s.logger.Debug(r.Context(), "event stream opened", "user", user.ID)
	<-r.Context().Done()
	s.logger.Debug(r.Context(), "event stream closed", "user", user.ID)
}
