package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// SubscribeEvents handles GET /sessions/{sessionID}/events (SSE). Each event
// carries a JSON StateDiff. The optional watch parameter keeps only diffs
// touching the listed fields.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if _, err := s.Engine.View(r.Context(), sessionID); err != nil {
		s.fail(w, r, err)
		return
	}

	var watchList []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		for _, field := range strings.Split(raw, ",") {
			watchList = append(watchList, strings.TrimSpace(field))
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Engine.Subscribe(sessionID)
	defer cancel()

	s.logger.Info("SSE: subscribed to session", "session_id", sessionID)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "session_id", sessionID)
			return
		case diff, ok := <-ch:
			if !ok {
				return
			}
			if !watched(diff, watchList) {
				continue
			}
			payload, err := json.Marshal(diff)
			if err != nil {
				s.logger.Error("SSE: diff encode failed", "err", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// watched reports whether diff touches any field of watchList. An empty
// list watches everything.
func watched(diff *domain.StateDiff, watchList []string) bool {
	if len(watchList) == 0 {
		return true
	}
	for _, field := range watchList {
		switch field {
		case "turns":
			if len(diff.Turns) > 0 {
				return true
			}
		case "stage":
			if diff.CurrentStage != nil {
				return true
			}
		case "status":
			if diff.Status != nil {
				return true
			}
		case "data":
			if len(diff.StageData) > 0 {
				return true
			}
		case "pending":
			if diff.Pending != nil {
				return true
			}
		}
	}
	return false
}
