package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hostwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hostwatch/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/hostwatch/internal/httpserver/mw"
)

func init() { Register(registerSecurity) }

func registerSecurity(r chi.Router, d deps.Deps) {
	protected(r, d, d.RequestTimeout).Get("/api/security/scan/last", handlers.LastSecurityScan(d))

	protected(r, d, d.ScanTimeout).
		With(mw.RateLimit(mw.RateLimitConfig{
			Burst:      d.ScanRateBurst,
			PerMinute:  d.ScanRatePerMinute,
			TrustProxy: d.TrustProxy,
		})).
		Post("/api/security/scan", handlers.SecurityScan(d))
}
