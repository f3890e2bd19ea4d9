package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hostwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hostwatch/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/hostwatch/internal/httpserver/mw"
)

func init() { Register(registerHealth) }

func registerHealth(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	local := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	local.Get("/readyz", handlers.Readyz(d))
	local.Get("/infra", handlers.Infra(d))
}
