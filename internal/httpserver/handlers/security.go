package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
	"github.com/MrSnakeDoc/hostwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hostwatch/internal/logger"
)

const maxScanBody = 1 << 20

// SecurityScan audits the services in the request body, or runs a discovery
// first when the body is empty. The result is cached when a cache is set.
func SecurityScan(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var services []domain.ServiceRecord
		err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxScanBody)).Decode(&services)
		switch {
		case errors.Is(err, io.EOF):
			services = d.Services.DiscoverAll(ctx)
		case err != nil:
			writeError(w, http.StatusBadRequest, "body must be a JSON list of services", d.Logger)
			return
		}

		result := d.Security.Scan(ctx, services)

		if d.ScanCache != nil && d.SecurityScanTTL > 0 {
			if err := d.ScanCache.CacheSecurityScan(ctx, result, d.SecurityScanTTL); err != nil {
				d.Logger.Warn("failed to cache security scan", logger.Error(err))
			}
		}

		d.Logger.Info("security scan completed",
			logger.Int("services", result.ServicesScanned),
			logger.Int("issues", len(result.Issues)),
			logger.Int("critical", result.CriticalCount))

		writeJSON(w, http.StatusOK, result, d.Logger)
	}
}

// LastSecurityScan returns the cached result of the latest scan.
func LastSecurityScan(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.ScanCache == nil {
			writeError(w, http.StatusNotFound, "scan cache disabled", d.Logger)
			return
		}
		result, ok, err := d.ScanCache.GetCachedSecurityScan(r.Context())
		if err != nil {
			d.Logger.Warn("failed to read cached security scan", logger.Error(err))
			writeError(w, http.StatusServiceUnavailable, "scan cache unavailable", d.Logger)
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "no cached scan", d.Logger)
			return
		}
		writeJSON(w, http.StatusOK, result, d.Logger)
	}
}
