package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/dugout-app/lineup-backend/internal/hub"
	"github.com/dugout-app/lineup-backend/internal/store"
	"github.com/dugout-app/lineup-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, st store.LineupStore, allowedOrigins []string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "PUT", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log))
	r.Get("/games/{gameID}/lineup", GetLineup(h, st))
	r.Put("/games/{gameID}/availability/{playerID}", SetAvailability(h, st, log))
	return r
}
