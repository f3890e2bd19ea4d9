package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/hostwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hostwatch/internal/monitor"
)

type monitorResponse struct {
	Enabled    bool   `json:"enabled"`
	IntervalMS int64  `json:"interval_ms"`
	Running    bool   `json:"running"`
	Ticks      int64  `json:"ticks"`
	Services   int    `json:"services"`
	LastTick   string `json:"last_tick"`
}

type monitorUpdate struct {
	IntervalMS *int64 `json:"interval_ms"`
	Enabled    *bool  `json:"enabled"`
}

func monitorView(st monitor.Status) monitorResponse {
	return monitorResponse{
		Enabled:    st.Settings.Enabled,
		IntervalMS: st.Settings.Interval.Milliseconds(),
		Running:    st.Running,
		Ticks:      st.Ticks,
		Services:   st.Services,
		LastTick:   formatTime(st.LastTick),
	}
}

func GetMonitor(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, monitorView(d.Monitor.Status()), d.Logger)
	}
}

// UpdateMonitor applies the fields present in the body. Omitted fields keep
// their current value.
func UpdateMonitor(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req monitorUpdate
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body", d.Logger)
			return
		}
		if req.IntervalMS == nil && req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "nothing to update", d.Logger)
			return
		}

		s := d.Monitor.Settings()
		if req.IntervalMS != nil {
			s.Interval = time.Duration(*req.IntervalMS) * time.Millisecond
		}
		if req.Enabled != nil {
			s.Enabled = *req.Enabled
		}
		if err := d.Monitor.SetSettings(s); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), d.Logger)
			return
		}

		writeJSON(w, http.StatusOK, monitorView(d.Monitor.Status()), d.Logger)
	}
}
