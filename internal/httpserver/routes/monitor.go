package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hostwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hostwatch/internal/httpserver/handlers"
)

func init() { Register(registerMonitor) }

func registerMonitor(r chi.Router, d deps.Deps) {
	api := protected(r, d, d.RequestTimeout)
	api.Get("/api/monitor", handlers.GetMonitor(d))
	api.Put("/api/monitor", handlers.UpdateMonitor(d))
	api.Get("/api/system/stats", handlers.SystemStats(d))
}
