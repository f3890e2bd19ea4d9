package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/hostwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hostwatch/internal/logger"
)

const timeLayout = "2006-01-02 15:04:05"

type componentStatus struct {
	OK             bool             `json:"ok"`
	ServicesLoaded *int             `json:"services_loaded,omitempty"`
	LastReload     string           `json:"last_reload,omitempty"`
	LastEvent      string           `json:"last_event,omitempty"`
	Interval       string           `json:"interval,omitempty"`
	Ticks          *int64           `json:"ticks,omitempty"`
	Mode           string           `json:"mode,omitempty"`
	Events         map[string]int64 `json:"events,omitempty"`
	Error          string           `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
	Providers  map[string]bool            `json:"providers"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		providers := make(map[string]bool)
		for _, p := range d.Services.Providers() {
			providers[p.Name()] = p.Available(ctx)
		}

		components := map[string]componentStatus{
			"monitor": monitorComponent(d),
			"index":   indexComponent(d),
			"redis":   checkRedis(ctx, d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components, providers),
			Components: components,
			Providers:  providers,
		}, d.Logger)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(timeLayout)
}

func monitorComponent(d deps.Deps) componentStatus {
	st := d.Monitor.Status()
	ticks := st.Ticks
	mode := "enabled"
	if !st.Settings.Enabled {
		mode = "paused"
	}
	return componentStatus{
		OK:         st.Running,
		Mode:       mode,
		Interval:   st.Settings.Interval.String(),
		Ticks:      &ticks,
		LastReload: formatTime(st.LastTick),
	}
}

func indexComponent(d deps.Deps) componentStatus {
	count := d.MemoryIndex.Count()
	return componentStatus{
		OK:             !d.MemoryIndex.GetLastReload().IsZero(),
		ServicesLoaded: &count,
		LastReload:     formatTime(d.MemoryIndex.GetLastReload()),
		LastEvent:      formatTime(d.MemoryIndex.GetLastEvent()),
	}
}

// determineMode is "critical" when the monitor is down, "degraded" when
// Redis is configured but unreachable or no platform source answers, and
// "optimal" otherwise.
func determineMode(components map[string]componentStatus, providers map[string]bool) string {
	if m, ok := components["monitor"]; ok && !m.OK {
		return "critical"
	}
	if r, ok := components["redis"]; ok && !r.OK {
		return "degraded"
	}
	for _, available := range providers {
		if available {
			return "optimal"
		}
	}
	return "degraded"
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(pingCtx).Err(); err != nil {
		d.Logger.Debug("redis ping failed", logger.Error(err))
		return componentStatus{
			OK:    false,
			Mode:  "degraded",
			Error: "unreachable",
		}
	}

	status := componentStatus{OK: true, Mode: "publishing"}
	if d.EventCounter != nil {
		if counts, err := d.EventCounter.GetEventCounts(pingCtx); err == nil {
			status.Events = counts
		}
	}
	return status
}
