// Package api serves a read-only view of a supervisor's posture over
// HTTP.
package api

import (
	"net/http"
	"strconv"

	"github.com/APTrust/integrity-services/models/integrity"
	"github.com/APTrust/integrity-services/monitor"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/op/go-logging"
)

const (
	defaultViolationLimit = 50
	maxViolationLimit     = 500
)

// ViolationLister returns recent violations, newest first.
// response.HistoryRecorder implements this.
type ViolationLister interface {
	Recent(count int) ([]*integrity.Violation, error)
}

type Handlers struct {
	Posture monitor.Observable[integrity.Posture]

	// History is optional. Without it, /violations returns the
	// violations from the current posture.
	History ViolationLister

	Logger *logging.Logger
}

// NewRouter returns a router with these routes:
//
//	GET /healthz     200 while the monitor is active, else 503
//	GET /status      current posture
//	GET /violations  recent violations, ?limit=N (default 50)
func NewRouter(handlers *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", handlers.Health)
	r.Get("/status", handlers.Status)
	r.Get("/violations", handlers.Violations)
	return r
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	posture := h.Posture.Get()
	if !posture.Status.IsActive() {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, map[string]string{"status": posture.Status.String()})
}

func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.Posture.Get())
}

func (h *Handlers) Violations(w http.ResponseWriter, r *http.Request) {
	limit := defaultViolationLimit
	if param := r.URL.Query().Get("limit"); param != "" {
		n, err := strconv.Atoi(param)
		if err != nil || n < 1 {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	if limit > maxViolationLimit {
		limit = maxViolationLimit
	}
	if h.History == nil {
		violations := h.Posture.Get().Violations
		if len(violations) > limit {
			violations = violations[:limit]
		}
		render.JSON(w, r, violations)
		return
	}
	violations, err := h.History.Recent(limit)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Errorf("GET /violations: %v", err)
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "violation history unavailable"})
		return
	}
	render.JSON(w, r, violations)
}
