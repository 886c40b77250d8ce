package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/glyphtech/symscan/internal/jobstore"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browser clients connect from arbitrary origins; job IDs are
		// unguessable so the stream itself carries the authorization.
		return true
	},
}

const progressPollInterval = 500 * time.Millisecond

// jobProgressWebSocketHandler streams job state snapshots until the job
// reaches a terminal status or the client disconnects.
func (s *Server) jobProgressWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/ws/jobs/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, "invalid job id", http.StatusBadRequest)
		return
	}
	if _, err := s.store.Get(r.Context(), id); err != nil {
		if errors.Is(err, jobstore.ErrNotFound) {
			s.writeError(w, "job not found", http.StatusNotFound)
			return
		}
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ticker := time.NewTicker(progressPollInterval)
	defer ticker.Stop()

	var lastUpdate time.Time
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
		job, err := s.store.Get(r.Context(), id)
		if err != nil {
			return
		}
		if job.UpdatedAt.After(lastUpdate) {
			lastUpdate = job.UpdatedAt
			if err := conn.WriteJSON(jobResponse(job)); err != nil {
				return
			}
		}
		if job.Status == jobstore.StatusCompleted || job.Status == jobstore.StatusFailed {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(job.Status))
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		}
	}
}
