package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/hostwatch/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}

// Readyz reports ready once the monitor has completed a round, or right away
// when monitoring is disabled.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := d.Monitor.Status()
		if st.Settings.Enabled && st.Ticks == 0 {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{
				Ready:  false,
				Reason: "waiting for first discovery",
			}, d.Logger)
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true}, d.Logger)
	}
}
