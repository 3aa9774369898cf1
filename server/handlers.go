package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/onnwee/trivia-tender/trivia"
)

// Handlers holds dependencies for the HTTP endpoints.
type Handlers struct {
	db      *sql.DB
	store   *trivia.Store
	src     StatusSource
	started time.Time
}

// HandleHealthz answers liveness probes. It only confirms the process serves
// HTTP; a dead database does not make the bot unhealthy.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz answers readiness probes with a database connectivity check.
// Without a database the bot still serves general trivia, so the response is
// 200 with a degraded marker rather than 503.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.db == nil {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "degraded", "database": "not configured"})
		return
	}
	if err := h.db.PingContext(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "not_ready", "error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// HandleStatus returns a JSON snapshot of the bot: per-channel session state,
// rate limiter usage, uptime, and question bank totals when available.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"uptime_seconds": int(time.Since(h.started).Seconds()),
	}
	if h.src != nil {
		for k, v := range h.src.Status() {
			out[k] = v
		}
	}

	if h.store != nil {
		if n, err := h.store.Count(r.Context()); err == nil {
			out["question_count"] = n
		}
		if cats, err := h.store.Categories(r.Context()); err == nil {
			out["categories"] = cats
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
