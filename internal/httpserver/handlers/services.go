package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
	"github.com/MrSnakeDoc/hostwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hostwatch/internal/index"
	"github.com/MrSnakeDoc/hostwatch/internal/logger"
)

type servicesResponse struct {
	Count    int                    `json:"count"`
	Services []domain.ServiceRecord `json:"services"`
}

// ListServices runs a full discovery round.
func ListServices(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := d.Services.DiscoverAll(r.Context())
		writeJSON(w, http.StatusOK, servicesResponse{
			Count:    len(services),
			Services: services,
		}, d.Logger)
	}
}

func GetService(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		svc, err := d.Services.GetService(r.Context(), id)
		if err != nil {
			d.Logger.Debug("service lookup failed",
				logger.String("service_id", id),
				logger.Error(err))
			writeError(w, statusFor(err), err.Error(), d.Logger)
			return
		}
		writeJSON(w, http.StatusOK, svc, d.Logger)
	}
}

type snapshotResponse struct {
	Count      int           `json:"count"`
	LastReload string        `json:"last_reload"`
	LastEvent  string        `json:"last_event"`
	Entries    []index.Entry `json:"entries"`
}

// Snapshot serves the index maintained from monitor events, without running
// discovery. ?removed=true includes services that disappeared recently.
func Snapshot(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeRemoved, _ := strconv.ParseBool(r.URL.Query().Get("removed"))
		entries := d.MemoryIndex.Entries(includeRemoved)
		writeJSON(w, http.StatusOK, snapshotResponse{
			Count:      len(entries),
			LastReload: formatTime(d.MemoryIndex.GetLastReload()),
			LastEvent:  formatTime(d.MemoryIndex.GetLastEvent()),
			Entries:    entries,
		}, d.Logger)
	}
}
