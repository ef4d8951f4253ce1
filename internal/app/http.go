package app

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/scheduler"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/session"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/store"
)

const recentEvents = 20

// Status is the /status response body.
type Status struct {
	Session    session.Snapshot `json:"session"`
	Backend    string           `json:"backend"`
	Today      *scheduler.Plan  `json:"today,omitempty"`
	TodayError string           `json:"today_error,omitempty"`
	Recent     []store.LogEntry `json:"recent,omitempty"`
}

// Routes builds the HTTP surface. webhook may be nil (polling mode).
func (c *Core) Routes(webhook http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/status", c.handleStatus)
	if webhook != nil {
		r.Post("/webhook", webhook.ServeHTTP)
	}
	return r
}

func (c *Core) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := Status{
		Session: c.Sessions.Status(),
		Backend: c.Schedule.Backend(),
	}
	if plan, err := c.Trigger.Today(ctx); err != nil {
		st.TodayError = err.Error()
	} else {
		st.Today = &plan
	}
	if recent, err := c.Events.Recent(ctx, recentEvents); err == nil {
		st.Recent = recent
	}

	w.Header().Set("Content-Type", "application/json")
	// The client hung up; headers are already out.
	_ = json.NewEncoder(w).Encode(st)
}
