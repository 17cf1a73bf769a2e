package gateway

import (
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/polybotservice/polybot/internal/core"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string  `json:"status"`
	Uptime float64 `json:"uptime_seconds"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	StartedAt time.Time        `json:"started_at"`
	Uptime    float64          `json:"uptime_seconds"`
	Webhooks  CountersSnapshot `json:"webhooks"`
	Sources   []string         `json:"sources"`
}

type moduleJSON struct {
	ID        string `json:"id"`
	Namespace string `json:"namespace"`
}

func (g *Gateway) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Uptime: g.uptime()})
	})
	if g.metrics != nil {
		r.Method(http.MethodGet, "/metrics", g.metrics)
	}
	r.Post("/webhooks/{source}", g.dispatcher.ServeHTTP)

	if !g.config.Auth.IsConfigured() {
		return r
	}
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(g.config.Auth, g.logger, g.limiter))
		r.Get("/status", g.handleStatus)
		r.Get("/api/modules", handleModules)
	})
	return r
}

func (g *Gateway) uptime() float64 {
	return time.Since(g.startedAt).Truncate(time.Second).Seconds()
}

func (g *Gateway) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		StartedAt: g.startedAt.UTC(),
		Uptime:    g.uptime(),
		Webhooks:  g.counters.Snapshot(),
		Sources:   g.dispatcher.sources(),
	})
}

// handleModules lists every module compiled into the binary.
func handleModules(w http.ResponseWriter, _ *http.Request) {
	var out []moduleJSON
	for _, m := range core.GetModules() {
		out = append(out, moduleJSON{ID: string(m.ID), Namespace: m.ID.Namespace()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (d *WebhookDispatcher) sources() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.handlers))
	for s := range d.handlers {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
