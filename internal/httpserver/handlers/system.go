package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/hostwatch/internal/httpserver/deps"
)

func SystemStats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Stats.Collect(r.Context()), d.Logger)
	}
}
