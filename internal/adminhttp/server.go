// Package adminhttp exposes the Gateway's health and stats surface over
// plain HTTP: a small hand-rolled JSON API with no generated stubs.
package adminhttp

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nimbus-silo/gateway/internal/gateway/senderpool"
	"github.com/nimbus-silo/gateway/internal/identity"
)

// Gateway is the subset of *gateway.Gateway this surface reads from. It is
// an interface so tests can supply a stub without constructing a full
// Gateway.
type Gateway interface {
	GetConnectedClients() []identity.ClientID
	SenderStats() []senderpool.WorkerStats
	RouteCacheLen() int
}

// Server is the admin HTTP surface: GET /healthz, GET /stats, GET /clients.
type Server struct {
	router http.Handler
}

func NewServer(gw Gateway) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, statsResponse{
			ConnectedClients: len(gw.GetConnectedClients()),
			RouteCacheSize:   gw.RouteCacheLen(),
			Senders:          gw.SenderStats(),
		})
	})

	r.Get("/clients", func(w http.ResponseWriter, r *http.Request) {
		ids := gw.GetConnectedClients()
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = id.String()
		}
		writeJSON(w, out)
	})

	return &Server{router: r}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

type statsResponse struct {
	ConnectedClients int                       `json:"connected_clients"`
	RouteCacheSize   int                       `json:"route_cache_size"`
	Senders          []senderpool.WorkerStats `json:"senders"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
