package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"stickhero/internal/room"
)

// NewRouter wires every route. WebSocket and SSE routes skip the request
// timeout.
func NewRouter(store *room.Store, baseURL string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	homeHandler := NewHomeHandler(store, baseURL)
	gameHandler := NewGameHandler(store)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		homeHandler.RegisterRoutes(r)
		gameHandler.RegisterRoutes(r)
	})
	gameHandler.RegisterStreamRoutes(r)

	return r
}
