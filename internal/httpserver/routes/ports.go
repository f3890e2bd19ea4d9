package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hostwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hostwatch/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/hostwatch/internal/httpserver/mw"
)

func init() { Register(registerPorts) }

func registerPorts(r chi.Router, d deps.Deps) {
	api := protected(r, d, d.RequestTimeout)
	api.Get("/api/ports", handlers.PortUsage(d))
	api.Get("/api/ports/free", handlers.FreePorts(d))

	scans := protected(r, d, d.ScanTimeout).With(mw.RateLimit(mw.RateLimitConfig{
		Burst:      d.ScanRateBurst,
		PerMinute:  d.ScanRatePerMinute,
		TrustProxy: d.TrustProxy,
	}))
	scans.Post("/api/ports/scan", handlers.ScanRange(d))
	scans.Post("/api/ports/scan/common", handlers.ScanCommon(d))
}
