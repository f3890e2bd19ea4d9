package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hostwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hostwatch/internal/httpserver/handlers"
)

func init() { Register(registerServices) }

func registerServices(r chi.Router, d deps.Deps) {
	api := protected(r, d, d.RequestTimeout)
	api.Get("/api/services", handlers.ListServices(d))
	api.Get("/api/services/snapshot", handlers.Snapshot(d))
	api.Get("/api/services/{id}", handlers.GetService(d))
}
