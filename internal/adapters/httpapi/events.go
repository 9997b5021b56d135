package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Guilhem-Bonnet/kitsu/internal/ports"
)

const heartbeatInterval = 15 * time.Second

// prefixSubscriber est implémenté par les bus capables de filtrer par topic.
type prefixSubscriber interface {
	SubscribePrefix(prefix string) (<-chan ports.Event, func())
}

// handleEvents diffuse les événements du bus en SSE (?topic= filtre par préfixe).
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	prefix := strings.TrimSpace(r.URL.Query().Get("topic"))
	var (
		events <-chan ports.Event
		cancel func()
	)
	if ps, ok := s.svc.Bus.(prefixSubscriber); ok {
		events, cancel = ps.SubscribePrefix(prefix)
	} else {
		events, cancel = s.svc.Bus.Subscribe()
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	fmt.Fprintf(w, "event: hello\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if prefix != "" && !strings.HasPrefix(evt.Topic, prefix) {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Topic, evt.Payload)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprintf(w, "event: ping\ndata: {}\n\n")
			flusher.Flush()
		}
	}
}
